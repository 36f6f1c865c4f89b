// Package events publishes user and note lifecycle events.
package events

import (
	"context"       // Context for broker calls
	"encoding/json" // Event encoding
	"fmt"           // Error wrapping
	"strconv"       // Key formatting
	"strings"       // Entity prefix
	"time"          // Timestamps and timeouts

	"github.com/segmentio/kafka-go" // Kafka client
	"github.com/sirupsen/logrus"    // Logging library
)

// Event types
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	NoteCreated    = "note.created"
	NoteUpdated    = "note.updated"
	NoteDeleted    = "note.deleted"
)

// DefaultPublishTimeout bounds how long a request may wait on the broker.
const DefaultPublishTimeout = 2 * time.Second

// Event describes a change to a user or a note.
type Event struct {
	Type    string    `json:"type"`              // One of the event types above
	ID      uint      `json:"id"`                // User or note ID
	OwnerID uint      `json:"ownerId,omitempty"` // Owning user, notes only
	At      time.Time `json:"at"`                // When the change happened
}

// Key groups every event of one entity on the same partition, e.g. "note:12".
func (e Event) Key() string {
	entity, _, _ := strings.Cut(e.Type, ".")
	return entity + ":" + strconv.FormatUint(uint64(e.ID), 10)
}

// New builds an event stamped with the current time.
func New(eventType string, id, ownerID uint) Event {
	return Event{Type: eventType, ID: id, OwnerID: ownerID, At: time.Now().UTC()}
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes JSON events to a single Kafka topic. Writes are asynchronous;
// delivery failures are logged, never returned.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher for topic on brokers. timeout <= 0 means DefaultPublishTimeout.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...), // Broker addresses
			Topic:                  topic,                 // Destination topic
			Balancer:               &kafka.Hash{},         // Same key, same partition
			BatchTimeout:           10 * time.Millisecond, // Flush small batches quickly
			MaxAttempts:            3,                     // Bounded retries per batch
			Async:                  true,                  // Never block a request on delivery
			AllowAutoTopicCreation: true,                  // Create the topic on first use
			Completion:             logDeliveryFailure,    // Report async failures
		},
		timeout: timeout,
	}
}

// Publish hands event to the writer. Only encoding and metadata failures within the
// timeout are returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event) // Encode event as JSON
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout) // Partition lookup is synchronous
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()), // Partition key
		Value: value,               // Event payload
	})
	if err != nil {
		return fmt.Errorf("failed to send message to kafka: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

func logDeliveryFailure(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"messages": len(messages), // Batch size
		"error":    err.Error(),   // Error message
	}).Warn("Failed to deliver events")
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
