// Package memory provides an exact, in-memory vector index.
//
// Search is brute force over every stored chunk, which makes this backend the
// recall oracle for validating approximate backends, the default for tests,
// and a perfectly good choice for corpora that fit in memory.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/echoplexco/subscout/pkg/vector"
)

// Index implements vector.Index with exact cosine-distance search.
type Index struct {
	mu     sync.RWMutex
	chunks map[string]vector.Chunk
	dims   int
	logger *slog.Logger
}

// NewIndex creates an empty in-memory index. The embedding dimensionality is
// fixed by the first inserted chunk.
func NewIndex(logger *slog.Logger) *Index {
	return &Index{
		chunks: make(map[string]vector.Chunk),
		logger: logger,
	}
}

// Insert adds chunks to the index. The whole batch is rejected when any ID is
// already present or any embedding has the wrong dimensionality.
func (idx *Index) Insert(_ context.Context, chunks ...vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Validate the full batch before mutating anything. An empty index takes
	// its dimensionality from the batch's first chunk, but only commits it
	// once the whole batch passes, so a rejected batch leaves the index
	// unlocked.
	dims := idx.dims
	if dims == 0 && len(idx.chunks) == 0 {
		dims = len(chunks[0].Embedding)
	}

	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if _, ok := idx.chunks[chunk.ID]; ok {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, chunk.ID)
		}
		if _, ok := seen[chunk.ID]; ok {
			return fmt.Errorf("%w: %s appears twice in batch", vector.ErrDuplicateID, chunk.ID)
		}
		seen[chunk.ID] = struct{}{}

		if len(chunk.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				vector.ErrDimension, chunk.ID, len(chunk.Embedding), dims)
		}
	}

	idx.dims = dims
	for _, chunk := range chunks {
		idx.chunks[chunk.ID] = chunk
	}

	idx.logger.Debug("inserted chunks into memory index",
		"count", len(chunks),
		"total", len(idx.chunks),
	)

	return nil
}

// Query scans every stored chunk and returns the k nearest by cosine
// distance, ties broken by ascending chunk ID.
func (idx *Index) Query(_ context.Context, embedding []float32, k int) ([]vector.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.chunks) == 0 {
		return []vector.Match{}, nil
	}

	if len(embedding) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			vector.ErrDimension, len(embedding), idx.dims)
	}

	matches := make([]vector.Match, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		matches = append(matches, vector.Match{
			Chunk:    chunk,
			Distance: cosineDistance(embedding, chunk.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if k < len(matches) {
		matches = matches[:k]
	}

	return matches, nil
}

// Count returns the total number of indexed chunks.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks), nil
}

// Close releases resources held by the index.
func (idx *Index) Close() error {
	return nil
}

// cosineDistance returns 1 - cos(a, b), in [0, 2]. A zero-norm vector has no
// direction; its distance to anything is defined as 1 (similarity 0).
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}

var _ vector.Index = (*Index)(nil)
