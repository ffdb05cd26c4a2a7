package checkout

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Shashankesi/Threadly/internal/money"
)

const (
	invalidCouponMessage = "Invalid coupon code."
	blankCouponMessage   = "Please enter a coupon code."
)

type Kind string

const (
	KindFlat       Kind = "flat"
	KindPercentage Kind = "percentage"
)

// Rule is one coupon. Value is an amount in rupees for flat rules and a rate
// in (0, 1] for percentage rules.
type Rule struct {
	Kind    Kind
	Value   decimal.Decimal
	Minimum money.Amount
	Message string
}

// Coupons maps an upper-case code to its rule.
type Coupons map[string]Rule

func DefaultCoupons() Coupons {
	return Coupons{
		"SAVE100": {
			Kind:    KindFlat,
			Value:   decimal.NewFromInt(100),
			Minimum: money.New(1000),
			Message: "₹100 off applied!",
		},
		"SAVE10PERCENT": {
			Kind:    KindPercentage,
			Value:   decimal.RequireFromString("0.10"),
			Minimum: money.New(2000),
			Message: "10% off applied!",
		},
		"FLAT500": {
			Kind:    KindFlat,
			Value:   decimal.NewFromInt(500),
			Minimum: money.New(5000),
			Message: "₹500 off applied!",
		},
	}
}

// CouponResult reports one coupon attempt. Discount is zero unless Applied.
type CouponResult struct {
	Code       string       `json:"code,omitempty"`
	Applied    bool         `json:"applied"`
	Message    string       `json:"message"`
	Discount   money.Amount `json:"discount"`
	FinalTotal money.Amount `json:"finalTotal"`
}

// Evaluate works out the discount code earns on subtotal. The code is trimmed
// and upper-cased before lookup.
func (c Coupons) Evaluate(code string, subtotal money.Amount) CouponResult {
	code = strings.ToUpper(strings.TrimSpace(code))
	res := CouponResult{Code: code, Discount: money.Zero}

	rule, ok := c[code]
	switch {
	case code == "":
		res.Message = blankCouponMessage
	case !ok:
		res.Message = invalidCouponMessage
	case subtotal.LessThan(rule.Minimum):
		res.Message = fmt.Sprintf("Cart subtotal must be at least %s for this coupon.", rule.Minimum)
	default:
		res.Applied = true
		res.Message = rule.Message
		res.Discount = rule.discount(subtotal)
	}

	res.FinalTotal = subtotal.Sub(res.Discount).NonNegative()
	return res
}

func (r Rule) discount(subtotal money.Amount) money.Amount {
	if r.Kind == KindPercentage {
		return money.FromDecimal(subtotal.MulRate(r.Value).Decimal().Round(2))
	}
	return money.FromDecimal(r.Value)
}

type couponFile struct {
	Coupons []struct {
		Code    string  `yaml:"code"`
		Kind    Kind    `yaml:"kind"`
		Value   float64 `yaml:"value"`
		Minimum float64 `yaml:"minimum"`
		Message string  `yaml:"message"`
	} `yaml:"coupons"`
}

// LoadCoupons reads a coupon table from a YAML file of the form
//
//	coupons:
//	  - code: SAVE100
//	    kind: flat
//	    value: 100
//	    minimum: 1000
//	    message: "₹100 off applied!"
func LoadCoupons(path string) (Coupons, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coupons: %w", err)
	}
	return ParseCoupons(raw)
}

func ParseCoupons(raw []byte) (Coupons, error) {
	var f couponFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse coupons: %w", err)
	}

	out := make(Coupons, len(f.Coupons))
	var errs []error
	for i, c := range f.Coupons {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		rule := Rule{
			Kind:    c.Kind,
			Value:   decimal.NewFromFloat(c.Value),
			Minimum: money.FromDecimal(decimal.NewFromFloat(c.Minimum)),
			Message: strings.TrimSpace(c.Message),
		}
		if err := rule.validate(); err != nil {
			errs = append(errs, fmt.Errorf("coupon %d (%q): %w", i, code, err))
			continue
		}
		if code == "" {
			errs = append(errs, fmt.Errorf("coupon %d: missing code", i))
			continue
		}
		if _, dup := out[code]; dup {
			errs = append(errs, fmt.Errorf("coupon %d: duplicate code %q", i, code))
			continue
		}
		out[code] = rule
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (r Rule) validate() error {
	switch r.Kind {
	case KindFlat:
	case KindPercentage:
		if r.Value.GreaterThan(decimal.NewFromInt(1)) {
			return errors.New("percentage value must be at most 1")
		}
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if !r.Value.IsPositive() {
		return errors.New("value must be positive")
	}
	if r.Minimum.IsNegative() {
		return errors.New("minimum must not be negative")
	}
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}
