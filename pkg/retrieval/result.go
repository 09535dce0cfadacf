package retrieval

import "math"

const (
	// DefaultK is the number of results returned when the caller does not
	// ask for a specific count.
	DefaultK = 5

	// MinK and MaxK bound the result count a caller may request.
	MinK = 1
	MaxK = 10
)

// Result is a single ranked retrieval hit.
type Result struct {
	// ChunkID identifies the indexed chunk, formed as
	// "<source>-<sequence>".
	ChunkID string `json:"chunk_id"`

	// SourceName is the subtitle file the chunk came from.
	SourceName string `json:"source_name"`

	// SequenceNumber is the chunk's position within its source.
	SequenceNumber int `json:"sequence_number"`

	// Text is the normalized chunk text.
	Text string `json:"text"`

	// Similarity is the cosine similarity between the query and the
	// chunk, in [-1, 1]. Ranking uses the full-precision value; round
	// only at presentation with RoundSimilarity.
	Similarity float64 `json:"similarity"`
}

// ClampK folds a requested result count into the supported range. Zero means
// the caller expressed no preference and gets DefaultK; anything above MaxK
// is capped.
func ClampK(k int) int {
	if k == 0 {
		return DefaultK
	}
	if k < MinK {
		return MinK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// RoundSimilarity rounds a similarity score to three decimal places for
// display. Ranking always happens on the unrounded value.
func RoundSimilarity(s float64) float64 {
	return math.Round(s*1000) / 1000
}
