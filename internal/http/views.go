package httpapi

import (
	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/money"
)

type sessionView struct {
	Username string `json:"username"`
	SignedIn bool   `json:"signedIn"`
}

type itemView struct {
	cart.Item
	LineTotal        money.Amount `json:"lineTotal"`
	LineTotalDisplay string       `json:"lineTotalDisplay"`
}

type cartView struct {
	Items           []itemView   `json:"items"`
	Count           int          `json:"count"`
	Subtotal        money.Amount `json:"subtotal"`
	SubtotalDisplay string       `json:"subtotalDisplay"`
}

func newCartView(items []cart.Item) cartView {
	v := cartView{Items: make([]itemView, 0, len(items))}
	for _, it := range items {
		v.Items = append(v.Items, itemView{
			Item:             it,
			LineTotal:        it.LineTotal(),
			LineTotalDisplay: money.Format(it.LineTotal()),
		})
	}
	v.Count = cart.CountOf(items)
	v.Subtotal = cart.SubtotalOf(items)
	v.SubtotalDisplay = money.Format(v.Subtotal)
	return v
}

type totalsView struct {
	Subtotal          money.Amount `json:"subtotal"`
	Discount          money.Amount `json:"discount"`
	FinalTotal        money.Amount `json:"finalTotal"`
	SubtotalDisplay   string       `json:"subtotalDisplay"`
	DiscountDisplay   string       `json:"discountDisplay"`
	FinalTotalDisplay string       `json:"finalTotalDisplay"`
}

func newTotalsView(subtotal, discount, final money.Amount) totalsView {
	return totalsView{
		Subtotal:          subtotal,
		Discount:          discount,
		FinalTotal:        final,
		SubtotalDisplay:   money.Format(subtotal),
		DiscountDisplay:   "-" + money.Format(discount),
		FinalTotalDisplay: money.Format(final),
	}
}

type checkoutView struct {
	State        checkout.State    `json:"state"`
	Items        []itemView        `json:"items"`
	Shipping     checkout.Shipping `json:"shipping"`
	Payment      checkout.Payment  `json:"payment"`
	PaymentLabel string            `json:"paymentLabel,omitempty"`
	CouponCode   string            `json:"couponCode,omitempty"`
	Totals       totalsView        `json:"totals"`
	Receipt      *receiptView      `json:"receipt,omitempty"`
}

func newCheckoutView(w *checkout.Wizard) checkoutView {
	d := w.Draft()
	v := checkoutView{
		State:        w.State(),
		Items:        newCartView(d.Items).Items,
		Shipping:     d.Shipping,
		Payment:      d.Payment,
		PaymentLabel: d.Payment.Method.Label(),
		CouponCode:   d.CouponCode,
		Totals:       newTotalsView(d.Subtotal, d.Discount, d.FinalTotal()),
	}
	if r, ok := w.Receipt(); ok {
		rv := newReceiptView(r)
		v.Receipt = &rv
	}
	return v
}

type receiptView struct {
	checkout.Receipt
	Totals totalsView `json:"totals"`
}

func newReceiptView(r checkout.Receipt) receiptView {
	return receiptView{
		Receipt: r,
		Totals:  newTotalsView(r.Subtotal, r.Discount, r.FinalTotal),
	}
}

type couponView struct {
	checkout.CouponResult
	Totals totalsView `json:"totals"`
}
