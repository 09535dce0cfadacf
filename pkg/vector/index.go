// Package vector provides interfaces and implementations for storing subtitle
// chunk embeddings and serving nearest-neighbor queries over them.
package vector

import "context"

// Chunk is one indexed unit of subtitle text with its precomputed embedding
// and source metadata. Chunks are immutable after insertion; the embedding is
// always the provider's output on Text at insertion time.
type Chunk struct {
	// ID is a unique, stable identifier for the chunk.
	ID string

	// SourceName is the originating subtitle source (e.g. the .srt file name).
	SourceName string

	// SequenceNumber orders the chunk within its source.
	SequenceNumber int

	// Text is the normalized chunk text.
	Text string

	// Embedding is the vector representation of Text. All chunks in one index
	// share the same dimensionality.
	Embedding []float32
}

// Match is a query hit: a stored chunk and its distance to the query vector.
type Match struct {
	Chunk

	// Distance is the cosine distance to the query vector, in [0, 2].
	// Lower is more similar. Similarity is derived as 1 - Distance.
	Distance float32
}

// Index stores chunk embeddings and answers nearest-neighbor queries.
//
// The metric is cosine distance for every implementation: embedding magnitudes
// carry no meaning for the sentence-embedding model family this system uses,
// so angular distance is the correct comparison. Swapping the metric silently
// changes result quality; implementations must not deviate.
//
// Indexes are read-mostly: Insert is called only during the ingestion phase,
// Query and Count may be called concurrently from many request goroutines
// once serving begins. Ingestion and serving do not overlap.
type Index interface {
	// Insert adds chunks to the index. It fails with ErrDuplicateID if any
	// chunk's ID is already present, in which case no chunk from the batch
	// is stored.
	Insert(ctx context.Context, chunks ...Chunk) error

	// Query returns up to k nearest neighbors of the given embedding,
	// ordered by ascending distance with ties broken by ascending chunk ID.
	// It returns fewer than k matches when the index holds fewer chunks,
	// and an empty slice (not an error) on an empty index.
	Query(ctx context.Context, embedding []float32, k int) ([]Match, error)

	// Count returns the total number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the index.
	Close() error
}
