package checkout

import (
	"strings"
	"time"
	"unicode"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/money"
)

const (
	cardMessage     = "Please enter valid card details (16-digit number, name, MM/YY, 3-digit CVV)."
	upiEmptyMessage = "Please enter your UPI ID."
	upiMessage      = "Please enter a valid UPI ID (e.g., example@bank)."
	methodMessage   = "Please select a payment method."
	shippingMessage = "Please fill in all required shipping fields."
)

type Shipping struct {
	FullName string `json:"fullName"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// Validate requires every field except Address2 to be non-blank.
func (s Shipping) Validate() error {
	required := []struct {
		name, value string
	}{
		{"fullName", s.FullName},
		{"address1", s.Address1},
		{"city", s.City},
		{"state", s.State},
		{"zip", s.Zip},
		{"country", s.Country},
		{"phone", s.Phone},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return newValidationError(shippingMessage, missing...)
	}
	return nil
}

func (s Shipping) trimmed() Shipping {
	return Shipping{
		FullName: strings.TrimSpace(s.FullName),
		Address1: strings.TrimSpace(s.Address1),
		Address2: strings.TrimSpace(s.Address2),
		City:     strings.TrimSpace(s.City),
		State:    strings.TrimSpace(s.State),
		Zip:      strings.TrimSpace(s.Zip),
		Country:  strings.TrimSpace(s.Country),
		Phone:    strings.TrimSpace(s.Phone),
	}
}

type Method string

const (
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
	MethodCOD  Method = "cod"
)

// Label is the name shown on the review and confirmation steps.
func (m Method) Label() string {
	switch m {
	case MethodCard:
		return "Credit/Debit Card"
	case MethodUPI:
		return "UPI"
	case MethodCOD:
		return "Cash on Delivery"
	default:
		return ""
	}
}

// Payment holds the fields of the selected method; fields of other methods
// are ignored.
type Payment struct {
	Method     Method `json:"method"`
	CardNumber string `json:"cardNumber,omitempty"`
	CardName   string `json:"cardName,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	UPIID      string `json:"upiId,omitempty"`
}

func (p Payment) Validate() error {
	switch p.Method {
	case MethodCard:
		number := digitsOnly(p.CardNumber)
		if len(number) < 16 ||
			strings.TrimSpace(p.CardName) == "" ||
			strings.TrimSpace(p.Expiry) == "" ||
			len(strings.TrimSpace(p.CVV)) < 3 {
			return newValidationError(cardMessage)
		}
	case MethodUPI:
		id := strings.TrimSpace(p.UPIID)
		if id == "" {
			return newValidationError(upiEmptyMessage)
		}
		if !strings.Contains(id, "@") {
			return newValidationError(upiMessage)
		}
	case MethodCOD:
	default:
		return newValidationError(methodMessage)
	}
	return nil
}

// Masked drops the secrets of p, keeping the last four card digits so the
// receipt can still name the card.
func (p Payment) Masked() Payment {
	out := Payment{Method: p.Method}
	switch p.Method {
	case MethodCard:
		number := digitsOnly(p.CardNumber)
		if len(number) > 4 {
			number = number[len(number)-4:]
		}
		out.CardNumber = "•••• " + number
		out.CardName = strings.TrimSpace(p.CardName)
	case MethodUPI:
		out.UPIID = strings.TrimSpace(p.UPIID)
	}
	return out
}

// digitsOnly strips the spaces and dashes shoppers type between card digit
// groups. Any other character makes the number invalid.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
		case unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}

// Draft is the order collected so far. Items is the cart as it was when the
// wizard was entered.
type Draft struct {
	Items      []cart.Item  `json:"items"`
	Shipping   Shipping     `json:"shipping"`
	Payment    Payment      `json:"payment"`
	Subtotal   money.Amount `json:"subtotal"`
	Discount   money.Amount `json:"discount"`
	CouponCode string       `json:"couponCode,omitempty"`
}

// FinalTotal is Subtotal - Discount, never below zero.
func (d Draft) FinalTotal() money.Amount {
	return d.Subtotal.Sub(d.Discount).NonNegative()
}

func (d Draft) clone() Draft {
	out := d
	out.Items = append([]cart.Item(nil), d.Items...)
	return out
}

// Receipt is the record of a placed order. It is returned once and never
// persisted.
type Receipt struct {
	OrderNumber   string       `json:"orderNumber"`
	OrderDate     time.Time    `json:"orderDate"`
	Shipping      Shipping     `json:"shipping"`
	Payment       Payment      `json:"payment"`
	PaymentMethod string       `json:"paymentMethod"`
	Items         []cart.Item  `json:"items"`
	Subtotal      money.Amount `json:"subtotal"`
	Discount      money.Amount `json:"discount"`
	CouponCode    string       `json:"couponCode,omitempty"`
	FinalTotal    money.Amount `json:"finalTotal"`
}
