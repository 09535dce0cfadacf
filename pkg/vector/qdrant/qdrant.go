// Package qdrant provides a Qdrant vector database index implementation.
//
// The collection is created with cosine distance. Qdrant reports cosine
// similarity scores, so distances are derived as 1 - score to match the rest
// of the system.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/echoplexco/subscout/pkg/vector"
)

// DefaultCollectionName is the default collection for subtitle embeddings.
const DefaultCollectionName = "subtitle_embeddings"

// Index implements vector.Index backed by a Qdrant collection.
type Index struct {
	client         *qdrantclient.Client
	collectionName string
	logger         *slog.Logger
}

// Config holds configuration for the Qdrant index.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334 if zero.
	Port int

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size, required to create the
	// collection on first use.
	Dimensions int
}

// NewIndex creates a new Qdrant-backed vector index.
func NewIndex(ctx context.Context, c Config, logger *slog.Logger) (*Index, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be > 0, got %d", c.Dimensions)
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host: c.Host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrUnavailable, err)
	}

	idx := &Index{
		client:         client,
		collectionName: collectionName,
		logger:         logger,
	}

	if err := idx.ensureCollection(ctx, c.Dimensions); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ensuring collection %q: %v",
			vector.ErrUnavailable, collectionName, err)
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", port,
		"collection", collectionName,
	)

	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context, dimensions int) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collectionName)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrantclient.CreateCollection{
		CollectionName: idx.collectionName,
		VectorsConfig: qdrantclient.NewVectorsConfig(&qdrantclient.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrantclient.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// pointID maps a chunk ID onto a stable UUID. Qdrant only accepts UUID or
// integer point IDs, so the chunk ID itself lives in the payload.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Insert adds chunks to the collection. Qdrant upserts silently on repeated
// point IDs, so existing points are checked first to honor the duplicate
// contract.
func (idx *Index) Insert(ctx context.Context, chunks ...vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(chunks))
	ids := make([]*qdrantclient.PointId, len(chunks))
	points := make([]*qdrantclient.PointStruct, len(chunks))
	for i, chunk := range chunks {
		if _, ok := seen[chunk.ID]; ok {
			return fmt.Errorf("%w: %s appears twice in batch", vector.ErrDuplicateID, chunk.ID)
		}
		seen[chunk.ID] = struct{}{}

		ids[i] = qdrantclient.NewIDUUID(pointID(chunk.ID))
		points[i] = &qdrantclient.PointStruct{
			Id:      ids[i],
			Vectors: qdrantclient.NewVectors(chunk.Embedding...),
			Payload: qdrantclient.NewValueMap(map[string]any{
				"chunk_id":        chunk.ID,
				"source_name":     chunk.SourceName,
				"sequence_number": int64(chunk.SequenceNumber),
				"text":            chunk.Text,
			}),
		}
	}

	existing, err := idx.client.Get(ctx, &qdrantclient.GetPoints{
		CollectionName: idx.collectionName,
		Ids:            ids,
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("%w: checking existing points: %v", vector.ErrUnavailable, err)
	}
	if len(existing) > 0 {
		dup := existing[0].Payload["chunk_id"].GetStringValue()
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, dup)
	}

	_, err = idx.client.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: idx.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %v", vector.ErrUnavailable, err)
	}

	idx.logger.Debug("added chunks to qdrant",
		"count", len(chunks),
	)

	return nil
}

// Query returns up to k nearest chunks by cosine distance.
func (idx *Index) Query(ctx context.Context, embedding []float32, k int) ([]vector.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	limit := uint64(k)
	scored, err := idx.client.Query(ctx, &qdrantclient.QueryPoints{
		CollectionName: idx.collectionName,
		Query:          qdrantclient.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying qdrant: %v", vector.ErrUnavailable, err)
	}

	matches := make([]vector.Match, 0, len(scored))
	for _, point := range scored {
		m := vector.Match{
			// Qdrant reports cosine similarity; convert back to distance.
			Distance: 1 - point.Score,
		}
		if payload := point.Payload; payload != nil {
			m.ID = payload["chunk_id"].GetStringValue()
			m.SourceName = payload["source_name"].GetStringValue()
			m.SequenceNumber = int(payload["sequence_number"].GetIntegerValue())
			m.Text = payload["text"].GetStringValue()
		}
		matches = append(matches, m)
	}

	// Qdrant orders by score but leaves equal-score order unspecified;
	// re-sort for the deterministic tie-break.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

// Count returns the total number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	count, err := idx.client.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: idx.collectionName,
		Exact:          qdrantclient.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting points: %v", vector.ErrUnavailable, err)
	}

	return int(count), nil
}

// Close releases the client connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}

var _ vector.Index = (*Index)(nil)
