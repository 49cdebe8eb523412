package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/config"
)

// Event types emitted on the booking topic
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypePaymentSucceeded = "payment.succeeded"
	TypePaymentFailed    = "payment.failed"
)

// Event is the envelope written to the booking topic. Keyed by booking ID
// so all events of one booking land on the same partition in order.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	PaymentID  string    `json:"payment_id,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits booking lifecycle events to Kafka. Publishing is best
// effort: a broker outage must never fail the booking or payment flow, so
// errors are logged and swallowed.
type Publisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewPublisher creates a Publisher, or nil when no brokers are configured.
// A nil Publisher is safe to call; every method is a no-op on it.
func NewPublisher(cfg config.EventsConfig, logger *logrus.Logger) *Publisher {
	if cfg.Brokers == "" {
		logger.Info("Event publishing disabled: no Kafka brokers configured")
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	logger.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Event publisher initialized")

	return &Publisher{writer: writer, logger: logger}
}

// Publish writes one event to the booking topic
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("type", event.Type).Error("Failed to encode event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.BookingID),
		Value: payload,
	})
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"type":       event.Type,
			"booking_id": event.BookingID,
		}).Error("Failed to publish event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"type":       event.Type,
		"booking_id": event.BookingID,
	}).Debug("Event published")
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
