// Package events publishes activity-log entries to an optional Kafka feed.
package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/observability"
)

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes activity entries to a single topic, keyed by entry ID.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Publish writes one activity entry to the feed. Callers treat failures as
// best-effort: the entry is already persisted on the presence record.
func (p *KafkaPublisher) Publish(ctx context.Context, entry domain.ActivityEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		observability.RecordActivityPublishFailure()
		return err
	}

	msg := kafka.Message{
		Key:   []byte(entry.ID),
		Value: value,
		Time:  entry.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		observability.RecordActivityPublishFailure()
		return err
	}
	observability.RecordActivityPublished()
	return nil
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
