// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benx421/rapidpay/internal/events"
	"github.com/segmentio/kafka-go"
)

const headerEventType = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to a single topic, partitioned by card.
type Publisher struct {
	writer messageWriter
}

var _ events.Publisher = (*Publisher)(nil)

type envelope struct {
	Data       any       `json:"data"`
	Type       string    `json:"type"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewPublisher creates a Publisher for topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish encodes event and writes it synchronously.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := encode(event, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encode(event events.Event, now time.Time) (kafka.Message, error) {
	data, err := json.Marshal(envelope{Type: event.Type, RecordedAt: now, Data: event.Payload})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s: %w", event.Type, err)
	}

	return kafka.Message{
		Key:   []byte(event.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
	}, nil
}
