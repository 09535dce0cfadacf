package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeChunkIndexed is emitted after a subtitle chunk is embedded
	// and inserted into the vector index.
	EventTypeChunkIndexed = "subscout.chunk.indexed"
)

// ChunkIndexedEvent is a transport-neutral event payload for an indexed
// subtitle chunk.
type ChunkIndexedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Chunk         ChunkMeta `json:"chunk"`
}

// ChunkMeta identifies the indexed chunk.
type ChunkMeta struct {
	ChunkID        string `json:"chunk_id"`
	SourceName     string `json:"source_name"`
	SequenceNumber int    `json:"sequence_number"`
	TextLength     int    `json:"text_length"`
	Dimensions     int    `json:"dimensions"`
}
