// Package money holds the storefront's single currency value type.
//
// Prices travel through the storefront as display strings such as "₹4999" or
// "₹1,23,456.50". They are parsed once into an Amount and all arithmetic
// happens on the Amount; formatting back to a display string goes through
// Format.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency prefix used by Format.
const Symbol = "₹"

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a rupee value with decimal precision.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

func New(rupees int64) Amount {
	return Amount{d: decimal.NewFromInt(rupees)}
}

func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse accepts a display price and strips the currency symbol, whitespace and
// digit-group separators before reading the number.
func Parse(s string) (Amount, error) {
	clean := strings.NewReplacer(Symbol, "", ",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return Amount{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse for compile-time constants like catalog prices.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Times multiplies by a line-item quantity.
func (a Amount) Times(qty int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))}
}

// MulRate multiplies by a fractional rate, e.g. 0.10 for ten percent.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(rate)}
}

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Float64() float64 {
	f, _ := a.d.Round(2).Float64()
	return f
}

// NonNegative clamps a at zero.
func (a Amount) NonNegative() Amount {
	if a.d.IsNegative() {
		return Zero
	}
	return a
}

func (a Amount) String() string { return Format(a) }

// Format renders a with the rupee symbol, Indian digit grouping and exactly two
// decimals: 123456.5 becomes "₹1,23,456.50".
func Format(a Amount) string {
	fixed := a.d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + Symbol + groupIndian(intPart) + "." + frac
}

// groupIndian separates the last three digits, then every two digits before
// them.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// MarshalJSON writes the amount as a plain JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a display string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
