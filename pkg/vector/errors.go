package vector

import "errors"

var (
	// ErrDuplicateID is returned when inserting a chunk whose ID is already
	// present. The offending batch is rejected without corrupting the index.
	ErrDuplicateID = errors.New("duplicate chunk id")

	// ErrNotFound is returned when a chunk is not found in the index.
	ErrNotFound = errors.New("chunk not found")

	// ErrDimension is returned when a vector's dimensionality does not match
	// the index configuration.
	ErrDimension = errors.New("embedding dimension mismatch")

	// ErrUnavailable is returned when the index backend is unreachable or
	// corrupt. Queries surface it unchanged; no partial results are returned.
	ErrUnavailable = errors.New("vector index unavailable")
)
