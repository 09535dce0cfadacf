// Package retrieval ranks indexed subtitle chunks against free-text queries.
//
// A search normalizes the query the same way indexed chunks were normalized,
// embeds it, asks the vector index for the nearest chunks by cosine distance,
// and reports each hit as a similarity (1 - distance) in descending order.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/echoplexco/subscout/pkg/embeddings"
	"github.com/echoplexco/subscout/pkg/normalize"
	"github.com/echoplexco/subscout/pkg/vector"
)

// Service performs ranked retrieval over a vector index.
type Service struct {
	provider embeddings.Provider
	index    vector.Index
	logger   *slog.Logger
}

// NewService creates a retrieval service over the given embedding provider
// and vector index.
func NewService(provider embeddings.Provider, index vector.Index, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		index:    index,
		logger:   logger,
	}
}

// Search returns up to k chunks ranked by similarity to the query. The query
// is normalized before embedding so it matches the form chunks were indexed
// in. k is clamped with ClampK; pass 0 for the default count.
//
// An empty or whitespace-only query is still embedded and searched; the
// empty string has a valid embedding and the index decides what it is near.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Result, error) {
	k = ClampK(k)
	normalized := normalize.Normalize(query)

	embedding, err := s.provider.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := s.index.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			ChunkID:        m.ID,
			SourceName:     m.SourceName,
			SequenceNumber: m.SequenceNumber,
			Text:           m.Text,
			Similarity:     1 - float64(m.Distance),
		})
	}

	// The index orders by ascending distance, which is descending
	// similarity; restate the order here so ranking does not depend on
	// any one backend's tie handling.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	s.logger.Debug("search complete",
		"query_len", len(query),
		"k", k,
		"results", len(results),
	)

	return results, nil
}

// Stats reports the number of indexed chunks.
func (s *Service) Stats(ctx context.Context) (int, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}
