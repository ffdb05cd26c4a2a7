package checkout

import (
	"errors"
	"strings"
)

// EmptyCartMessage is shown to the shopper when ErrEmptyCart is returned.
const EmptyCartMessage = "Your cart is empty. Please add items before proceeding to checkout."

var (
	// ErrEmptyCart is returned by Enter when there is nothing to check out.
	// Callers are expected to send the shopper back to the storefront.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrInvalidTransition is returned when an operation is not allowed in
	// the wizard's current state.
	ErrInvalidTransition = errors.New("checkout: invalid transition")
)

// ValidationError is a form problem the shopper can fix and resubmit. The
// wizard state is unchanged when one is returned.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

func newValidationError(msg string, fields ...string) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}
