// Package kafka publishes chunk events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/echoplexco/subscout/pkg/eventstream"
)

// DefaultTopic is the default Kafka topic for chunk events.
const DefaultTopic = "subscout.chunks"

// Publisher writes chunk events to Kafka, keyed by source name so all chunks
// of one subtitle land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the topic to publish to. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a Kafka-backed chunk event publisher.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafkago.Hash{},
	}

	logger.Info("kafka publisher ready",
		"brokers", c.Brokers,
		"topic", topic,
	)

	return &Publisher{writer: writer, logger: logger}, nil
}

// PublishChunk writes the event to the configured topic.
func (p *Publisher) PublishChunk(ctx context.Context, event *eventstream.ChunkIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilChunkEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling chunk event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Chunk.SourceName),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing chunk event: %w", err)
	}

	p.logger.Debug("published chunk event",
		"chunk_id", event.Chunk.ChunkID,
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
