package nop

import (
	"context"

	"github.com/echoplexco/subscout/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishChunk validates input and otherwise does nothing.
func (p *Publisher) PublishChunk(_ context.Context, event *eventstream.ChunkIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilChunkEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
