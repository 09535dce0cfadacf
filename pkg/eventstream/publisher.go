package eventstream

import "context"

// Publisher publishes chunk events to an event stream backend.
type Publisher interface {
	PublishChunk(ctx context.Context, event *ChunkIndexedEvent) error
	Close() error
}
