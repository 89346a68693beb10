package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher sends envelopes to a topic exchange, keyed by event type.
type Publisher interface {
	Publish(ctx context.Context, key string, envelope Envelope) error
	Close() error
}

type rmqPublisher struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

// NewPublisher dials the broker and declares a durable topic exchange.
func NewPublisher(url, exchange string, logger *slog.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &rmqPublisher{conn: conn, exchange: exchange, log: logger}, nil
}

func (r *rmqPublisher) Publish(ctx context.Context, key string, envelope Envelope) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if envelope.Meta.ID == "" {
		envelope.Meta.ID = uuid.NewString()
	}
	if envelope.Meta.CorrelationID == "" {
		envelope.Meta.CorrelationID = envelope.Meta.ID
	}
	if envelope.Meta.Time.IsZero() {
		envelope.Meta.Time = time.Now().UTC()
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     envelope.Meta.ID,
		CorrelationId: envelope.Meta.CorrelationID,
		Type:          envelope.Meta.Type,
		Timestamp:     envelope.Meta.Time,
		Body:          body,
	})
	if err == nil {
		r.log.Info("published", slog.String("key", key), slog.String("exchange", r.exchange))
	}
	return err
}

func (r *rmqPublisher) Close() error {
	return r.conn.Close()
}

// FallbackPublisher logs envelopes instead of sending them. It stands in
// when no broker is configured.
type FallbackPublisher struct {
	Log *slog.Logger
}

func (f FallbackPublisher) Publish(ctx context.Context, key string, envelope Envelope) error {
	logger := f.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event publishing disabled, dropping event",
		slog.String("key", key), slog.String("type", envelope.Meta.Type))
	return nil
}

func (f FallbackPublisher) Close() error { return nil }
