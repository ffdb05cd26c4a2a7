package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/middleware"
	"github.com/Shashankesi/Threadly/internal/money"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
	hasDeadline   bool
}

type fakeChannel struct {
	declared   []string
	published  []published
	declareErr error
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name+"/"+kind)
	return c.declareErr
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, ok := ctx.Deadline()
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg, hasDeadline: ok})
	return c.publishErr
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func sampleReceipt(t *testing.T) checkout.Receipt {
	t.Helper()
	var items []cart.Item
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"101","name":"Casual Denim Jacket","price":"₹4999","size":"M","quantity":2},
		{"id":"104","name":"Slim Fit Chinos","price":"₹1199","size":"32","quantity":1}
	]`), &items))

	subtotal := cart.SubtotalOf(items)
	discount := money.New(500)
	return checkout.Receipt{
		OrderNumber:   "#THRDLY123456",
		OrderDate:     time.Date(2026, 3, 14, 16, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
		PaymentMethod: "UPI",
		Items:         items,
		Subtotal:      subtotal,
		Discount:      discount,
		CouponCode:    "FLAT500",
		FinalTotal:    subtotal.Sub(discount),
	}
}

func TestBuildOrderPlacedEnvelope(t *testing.T) {
	r := sampleReceipt(t)

	env := BuildOrderPlacedEnvelope(r, "test-producer", EnvelopeMetadata{CausationID: "cause-1"})
	require.NoError(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))

	assert.Equal(t, r.OrderNumber, env.PartitionKey)
	assert.Equal(t, "test-producer", env.Producer)
	assert.Equal(t, "cause-1", env.CausationID)
	assert.NotEmpty(t, env.CorrelationID, "minted when absent")
	assert.Equal(t, time.UTC, env.Payload.OrderDate.Location())
	require.Len(t, env.Payload.Items, 2)
	assert.True(t, money.New(4999).Equal(env.Payload.Items[0].UnitPrice))

	body, err := json.Marshal(env)
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(body, &asMap))
	for _, field := range []string{"eventName", "eventVersion", "eventId", "producer", "partitionKey", "occurredAt", "schema", "payload"} {
		assert.Contains(t, asMap, field)
	}
	payload := asMap["payload"].(map[string]any)
	assert.EqualValues(t, 11197, payload["subtotal"])
	assert.EqualValues(t, 10697, payload["finalTotal"])
	assert.Equal(t, "FLAT500", payload["couponCode"])

	env.EventName = "WrongEvent"
	assert.Error(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
}

func TestPublisher_PublishOrderPlaced(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{EventsExchange + "/topic"}, ch.declared)

	ctx := middleware.WithCorrelationID(context.Background(), "cid-42")
	ctx = context.WithValue(ctx, chimw.RequestIDKey, "host/req-000007")
	require.NoError(t, p.PublishOrderPlaced(ctx, sampleReceipt(t)))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, EventsExchange, got.exchange)
	assert.Equal(t, OrderPlacedRoutingKey, got.key)
	assert.True(t, got.hasDeadline)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "cid-42", got.msg.CorrelationId)

	var env OrderPlacedEnvelope
	require.NoError(t, json.Unmarshal(got.msg.Body, &env))
	require.NoError(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
	assert.Equal(t, got.msg.MessageId, env.EventID)
	assert.Equal(t, DefaultProducer, env.Producer)
	assert.Equal(t, "cid-42", env.CorrelationID)
	assert.Equal(t, "host/req-000007", env.CausationID)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_Errors(t *testing.T) {
	t.Run("declare", func(t *testing.T) {
		_, err := newPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "", nil)
		require.Error(t, err)
	})

	t.Run("publish", func(t *testing.T) {
		p, err := newPublisher(&fakeChannel{publishErr: amqp.ErrClosed}, "", nil)
		require.NoError(t, err)

		err = p.PublishOrderPlaced(context.Background(), sampleReceipt(t))
		require.ErrorIs(t, err, amqp.ErrClosed)
	})

	t.Run("receipt without order number", func(t *testing.T) {
		ch := &fakeChannel{}
		p, err := newPublisher(ch, "", nil)
		require.NoError(t, err)

		r := sampleReceipt(t)
		r.OrderNumber = ""
		err = p.PublishOrderPlaced(context.Background(), r)
		require.ErrorContains(t, err, "missing partitionKey")
		assert.Empty(t, ch.published, "an invalid envelope is never sent")
	})
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher("", zap.New(core))

	require.NoError(t, p.PublishOrderPlaced(context.Background(), sampleReceipt(t)))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, OrderPlacedEventName, fields["event"])
	assert.Equal(t, OrderPlacedRoutingKey, fields["routing_key"])
	assert.Contains(t, fields["body"], "#THRDLY123456")

	r := sampleReceipt(t)
	r.OrderNumber = ""
	require.Error(t, p.PublishOrderPlaced(context.Background(), r))
	assert.Len(t, logs.All(), 1, "nothing logged for an invalid envelope")
}
