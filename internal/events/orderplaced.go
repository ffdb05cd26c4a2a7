package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/money"
)

const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderPlacedEventVersion = 1
	orderPlacedSchema       = "contracts/events/order/OrderPlaced.v1.payload.schema.json"
)

type OrderLine struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Size      string       `json:"size"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
}

// OrderPlacedPayload represents the v1 payload schema.
type OrderPlacedPayload struct {
	OrderNumber   string       `json:"orderNumber"`
	OrderDate     time.Time    `json:"orderDate"`
	Items         []OrderLine  `json:"items"`
	Subtotal      money.Amount `json:"subtotal"`
	Discount      money.Amount `json:"discount"`
	CouponCode    string       `json:"couponCode,omitempty"`
	FinalTotal    money.Amount `json:"finalTotal"`
	PaymentMethod string       `json:"paymentMethod"`
}

type OrderPlacedEnvelope = EventEnvelope[OrderPlacedPayload]

// BuildOrderPlacedEnvelope wraps a receipt. The order number is the partition
// key; a correlation id is minted when meta has none.
func BuildOrderPlacedEnvelope(r checkout.Receipt, producer string, meta EnvelopeMetadata) OrderPlacedEnvelope {
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}

	items := make([]OrderLine, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, OrderLine{
			ProductID: it.ID,
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice(),
		})
	}

	return OrderPlacedEnvelope{
		EventName:     OrderPlacedEventName,
		EventVersion:  OrderPlacedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  r.OrderNumber,
		OccurredAt:    time.Now().UTC(),
		Schema:        orderPlacedSchema,
		Payload: OrderPlacedPayload{
			OrderNumber:   r.OrderNumber,
			OrderDate:     r.OrderDate.UTC(),
			Items:         items,
			Subtotal:      r.Subtotal,
			Discount:      r.Discount,
			CouponCode:    r.CouponCode,
			FinalTotal:    r.FinalTotal,
			PaymentMethod: r.PaymentMethod,
		},
	}
}
