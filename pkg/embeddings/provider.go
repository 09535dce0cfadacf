// Package embeddings defines the provider interface for mapping text to
// fixed-length dense vectors.
package embeddings

import "context"

// Provider converts text into vector embeddings.
//
// Implementations must be deterministic for a fixed model version: the same
// input text yields the same vector (within floating-point tolerance), and an
// empty string is embeddable like any other input. Providers are shared,
// read-mostly handles: all methods must be safe for concurrent use.
type Provider interface {
	// Embed converts a single text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts a batch of texts into embeddings, preserving
	// input order: len(out) == len(texts) and out[i] corresponds to texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the provider.
	Close() error
}
