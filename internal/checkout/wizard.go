// Package checkout runs the Shipping → Payment → Review → Confirmation flow
// over a snapshot of the cart.
package checkout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/money"
)

// OrderPrefix starts every order number.
const OrderPrefix = "#THRDLY"

// Cart is the part of the cart store the wizard needs.
type Cart interface {
	Items(ctx context.Context) ([]cart.Item, error)
	Clear(ctx context.Context) error
}

// OrderPublisher is told about every placed order.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, r Receipt) error
}

type Option func(*Wizard)

func WithCoupons(c Coupons) Option {
	return func(w *Wizard) { w.coupons = c }
}

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithOrderNumbers replaces the random order number generator.
func WithOrderNumbers(next func() string) Option {
	return func(w *Wizard) { w.nextOrderNumber = next }
}

func WithPublisher(p OrderPublisher) Option {
	return func(w *Wizard) { w.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) { w.logger = l }
}

// Wizard is one checkout attempt. It is safe for concurrent use; calls are
// applied one at a time.
type Wizard struct {
	cart            Cart
	coupons         Coupons
	now             func() time.Time
	nextOrderNumber func() string
	publisher       OrderPublisher
	logger          *zap.Logger

	mu      sync.Mutex
	state   State
	draft   Draft
	receipt *Receipt
}

// Enter starts a wizard in Shipping over the current cart contents. An empty
// cart returns ErrEmptyCart and no wizard.
func Enter(ctx context.Context, c Cart, opts ...Option) (*Wizard, error) {
	w := &Wizard{
		cart:            c,
		coupons:         DefaultCoupons(),
		now:             time.Now,
		nextOrderNumber: randomOrderNumber,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	items, err := c.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("enter checkout: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	w.state = StateShipping
	w.draft = Draft{
		Items:    items,
		Subtotal: cart.SubtotalOf(items),
		Discount: money.Zero,
	}
	return w, nil
}

func randomOrderNumber() string {
	return fmt.Sprintf("%s%d", OrderPrefix, rand.IntN(1_000_000))
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the order collected so far.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// Receipt is set once the order has been placed.
func (w *Wizard) Receipt() (Receipt, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.receipt == nil {
		return Receipt{}, false
	}
	return *w.receipt, true
}

func (w *Wizard) SubmitShipping(s Shipping) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.require(StateShipping); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	w.draft.Shipping = s.trimmed()
	w.state = StatePayment
	return nil
}

// SubmitPayment validates p and moves to Review. Only the masked form of p is
// kept. Review always starts with no coupon applied.
func (w *Wizard) SubmitPayment(p Payment) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.require(StatePayment); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	w.draft.Payment = p.Masked()
	w.draft.Subtotal = cart.SubtotalOf(w.draft.Items)
	w.draft.Discount = money.Zero
	w.draft.CouponCode = ""
	w.state = StateReview
	return nil
}

// ApplyCoupon replaces any earlier discount with the one code earns. A code
// that does not qualify leaves the order undiscounted; that outcome is
// reported in the result, not as an error.
func (w *Wizard) ApplyCoupon(code string) (CouponResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.require(StateReview); err != nil {
		return CouponResult{}, err
	}

	res := w.coupons.Evaluate(code, w.draft.Subtotal)
	w.draft.Discount = res.Discount
	w.draft.CouponCode = ""
	if res.Applied {
		w.draft.CouponCode = res.Code
	}
	return res, nil
}

// PlaceOrder clears the cart and moves to Confirmation. If the cart cannot be
// cleared the wizard stays in Review so the shopper can retry.
func (w *Wizard) PlaceOrder(ctx context.Context) (Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.require(StateReview); err != nil {
		return Receipt{}, err
	}

	if err := w.cart.Clear(ctx); err != nil {
		return Receipt{}, fmt.Errorf("place order: %w", err)
	}

	d := w.draft.clone()
	r := Receipt{
		OrderNumber:   w.nextOrderNumber(),
		OrderDate:     w.now(),
		Shipping:      d.Shipping,
		Payment:       d.Payment,
		PaymentMethod: d.Payment.Method.Label(),
		Items:         d.Items,
		Subtotal:      d.Subtotal,
		Discount:      d.Discount,
		CouponCode:    d.CouponCode,
		FinalTotal:    d.FinalTotal(),
	}
	w.receipt = &r
	w.state = StateConfirmation

	w.logger.Info("order placed",
		zap.String("order_number", r.OrderNumber),
		zap.Int("lines", len(r.Items)),
		zap.String("final_total", r.FinalTotal.String()),
	)

	if w.publisher != nil {
		if err := w.publisher.PublishOrderPlaced(ctx, r); err != nil {
			w.logger.Error("publish order placed", zap.String("order_number", r.OrderNumber), zap.Error(err))
		}
	}
	return r, nil
}

// GoBack returns from Payment to Shipping or from Review to Payment. The draft
// keeps what was entered.
func (w *Wizard) GoBack() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev, ok := w.state.previous()
	if !ok {
		return fmt.Errorf("go back from %s: %w", w.state, ErrInvalidTransition)
	}
	w.state = prev
	return nil
}

func (w *Wizard) require(want State) error {
	if w.state != want {
		return fmt.Errorf("in %s, want %s: %w", w.state, want, ErrInvalidTransition)
	}
	return nil
}
