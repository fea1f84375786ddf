// Package kafka publishes domain events to the message broker. Events ride a
// small JSON envelope keyed by event type so consumers can partition and
// filter without decoding payloads.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
)

// DefaultTopic is where scheduling events land unless configured otherwise
const DefaultTopic = "scheduling.events"

// Config holds producer settings
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
}

// DefaultConfig returns producer settings suitable for development
func DefaultConfig(brokers []string) *Config {
	return &Config{
		Brokers:      brokers,
		Topic:        DefaultTopic,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// envelope is the wire format for one domain event
type envelope struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	OccurredAt  time.Time       `json:"occurredAt"`
	PublishedAt time.Time       `json:"publishedAt"`
	Data        json.RawMessage `json:"data"`
}

// EventPublisher implements domain.EventPublisher using Kafka
type EventPublisher struct {
	writer  *kafka.Writer
	topic   string
	metrics *metrics.Metrics
}

// NewEventPublisher creates a new Kafka-based event publisher
func NewEventPublisher(config *Config, m *metrics.Metrics) *EventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &EventPublisher{
		writer:  writer,
		topic:   config.Topic,
		metrics: m,
	}
}

// Publish publishes domain events to Kafka
func (p *EventPublisher) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	now := time.Now().UTC()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}

		env := envelope{
			EventID:     uuid.New().String(),
			EventType:   event.EventType(),
			OccurredAt:  event.OccurredAt(),
			PublishedAt: now,
			Data:        data,
		}
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal envelope: %w", err)
		}

		msg := kafka.Message{
			Key:   []byte(event.EventType()),
			Value: value,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.EventType())},
				{Key: "content-type", Value: []byte("application/json")},
			},
		}
		if correlationID, ok := ctx.Value(logging.CorrelationIDKey).(string); ok && correlationID != "" {
			msg.Headers = append(msg.Headers, kafka.Header{
				Key:   "correlation-id",
				Value: []byte(correlationID),
			})
		}

		messages = append(messages, msg)
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, messages...)
	if p.metrics != nil {
		for _, event := range events {
			p.metrics.ObserveEventPublish(p.topic, event.EventType(), err, time.Since(start))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to publish events to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
