package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/middleware"
)

const publishTimeout = 3 * time.Second

// Publisher sends OrderPlaced envelopes to the events exchange.
type Publisher struct {
	ch       channel
	producer string
	logger   *zap.Logger
}

func NewPublisher(conn *amqp.Connection, producer string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch, producer, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, producer string, logger *zap.Logger) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	if producer == "" {
		producer = DefaultProducer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, producer: producer, logger: logger}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, r checkout.Receipt) error {
	env, body, err := encodeOrderPlaced(ctx, r, p.producer)
	if err != nil {
		return err
	}

	if err := p.publishJSON(ctx, OrderPlacedRoutingKey, env.EventID, env.CorrelationID, body); err != nil {
		return fmt.Errorf("publish OrderPlaced: %w", err)
	}

	p.logger.Info("published event",
		zap.String("event", OrderPlacedEventName),
		zap.String("event_id", env.EventID),
		zap.String("partition_key", env.PartitionKey),
		zap.String("correlation_id", env.CorrelationID),
	)
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID, correlationID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     messageID,
			CorrelationId: correlationID,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	)
}

// LogPublisher writes OrderPlaced envelopes to the log instead of a broker.
type LogPublisher struct {
	producer string
	logger   *zap.Logger
}

func NewLogPublisher(producer string, logger *zap.Logger) *LogPublisher {
	if producer == "" {
		producer = DefaultProducer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{producer: producer, logger: logger}
}

func (p *LogPublisher) PublishOrderPlaced(ctx context.Context, r checkout.Receipt) error {
	env, body, err := encodeOrderPlaced(ctx, r, p.producer)
	if err != nil {
		return err
	}

	p.logger.Info("event (no broker configured)",
		zap.String("event", OrderPlacedEventName),
		zap.String("routing_key", OrderPlacedRoutingKey),
		zap.String("event_id", env.EventID),
		zap.String("correlation_id", env.CorrelationID),
		zap.ByteString("body", body),
	)
	return nil
}

// encodeOrderPlaced builds the envelope for r and checks it before anything is
// sent. The correlation id comes from the request; the request id, when chi's
// RequestID middleware set one, is recorded as the causation id.
func encodeOrderPlaced(ctx context.Context, r checkout.Receipt, producer string) (OrderPlacedEnvelope, []byte, error) {
	env := BuildOrderPlacedEnvelope(r, producer, EnvelopeMetadata{
		CorrelationID: middleware.GetCorrelationID(ctx),
		CausationID:   chimw.GetReqID(ctx),
	})
	if err := env.Validate(OrderPlacedEventName, OrderPlacedEventVersion); err != nil {
		return OrderPlacedEnvelope{}, nil, fmt.Errorf("invalid OrderPlaced envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return OrderPlacedEnvelope{}, nil, fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}
	return env, body, nil
}

var (
	_ checkout.OrderPublisher = (*Publisher)(nil)
	_ checkout.OrderPublisher = (*LogPublisher)(nil)
)
