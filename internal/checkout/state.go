package checkout

type State int

const (
	StateShipping State = iota + 1
	StatePayment
	StateReview
	StateConfirmation
)

func (s State) String() string {
	switch s {
	case StateShipping:
		return "shipping"
	case StatePayment:
		return "payment"
	case StateReview:
		return "review"
	case StateConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// previous is the step GoBack returns to. Only Payment and Review have one.
func (s State) previous() (State, bool) {
	switch s {
	case StatePayment:
		return StateShipping, true
	case StateReview:
		return StatePayment, true
	default:
		return 0, false
	}
}
