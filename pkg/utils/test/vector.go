package testutils

import (
	"context"
	"sort"

	"github.com/echoplexco/subscout/pkg/vector"
)

// MockIndex is a test vector index with canned query results
type MockIndex struct {
	Chunks []vector.Chunk

	// Matches are returned from Query, truncated to k and re-sorted by
	// distance then ID the way real backends do
	Matches []vector.Match

	// QueryErr, when set, makes Query fail with this error
	QueryErr error
}

func NewMockIndex() *MockIndex {
	return &MockIndex{}
}

func (m *MockIndex) Insert(_ context.Context, chunks ...vector.Chunk) error {
	m.Chunks = append(m.Chunks, chunks...)
	return nil
}

func (m *MockIndex) Query(_ context.Context, _ []float32, k int) ([]vector.Match, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	matches := make([]vector.Match, len(m.Matches))
	copy(matches, m.Matches)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *MockIndex) Count(_ context.Context) (int, error) {
	return len(m.Chunks), nil
}

func (m *MockIndex) Close() error {
	return nil
}

var _ vector.Index = (*MockIndex)(nil)
