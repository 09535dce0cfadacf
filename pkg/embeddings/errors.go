package embeddings

import "errors"

var (
	// ErrProviderUnavailable is returned when the underlying embedding model
	// cannot be loaded or reached. This is fatal to the service; callers must
	// not retry per-request.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrEmbedding is returned when embedding generation fails for a request
	// that reached a healthy provider.
	ErrEmbedding = errors.New("embedding failed")
)
