package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// EventTypePublished is the event_type header of dataset announcements.
const EventTypePublished = "dataset.published"

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier announces published datasets on a Kafka topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the announcement topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, topic: topic, logger: logger}
}

// NotifyPublished writes one message describing event.
func (n *Notifier) NotifyPublished(ctx context.Context, event domain.DatasetPublished) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dataset event: %w", err)
	}
	n.logger.Debug("dataset announced",
		"topic", n.topic,
		"id", string(msg.Key),
		"path", event.Parquet,
	)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a DatasetPublished event into a Kafka message,
// assigning an ID when the event has none.
func serializeToMessage(event domain.DatasetPublished) (kafkago.Message, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypePublished)},
			{Key: "published_at", Value: []byte(event.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
