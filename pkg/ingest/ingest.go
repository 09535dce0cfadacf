// Package ingest walks subtitle files into the vector index: parse, clean,
// chunk, embed, insert, and announce each chunk on the event stream.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/echoplexco/subscout/pkg/embeddings"
	"github.com/echoplexco/subscout/pkg/eventstream"
	"github.com/echoplexco/subscout/pkg/subtitles"
	"github.com/echoplexco/subscout/pkg/vector"
)

// Stats aggregates the outcome of an ingest run.
type Stats struct {
	// SourcesIndexed counts subtitle files fully ingested.
	SourcesIndexed int

	// SourcesFailed counts subtitle files that errored and were skipped.
	SourcesFailed int

	// ChunksIndexed counts chunks inserted into the index.
	ChunksIndexed int

	// AdCuesRemoved counts distributor advertisement cues stripped before
	// chunking.
	AdCuesRemoved int
}

// Ingester converts subtitle files into indexed chunks.
type Ingester struct {
	provider  embeddings.Provider
	index     vector.Index
	publisher eventstream.Publisher
	chunker   *subtitles.Chunker
	logger    *slog.Logger
}

// NewIngester creates an ingester over the given provider, index, and
// publisher. cuesPerChunk below 1 falls back to the chunker default.
func NewIngester(
	provider embeddings.Provider,
	index vector.Index,
	publisher eventstream.Publisher,
	cuesPerChunk int,
	logger *slog.Logger,
) *Ingester {
	return &Ingester{
		provider:  provider,
		index:     index,
		publisher: publisher,
		chunker:   subtitles.NewChunker(cuesPerChunk),
		logger:    logger,
	}
}

// IngestDir ingests every .srt file under dir, walking subdirectories.
// A file that fails is logged and skipped; the rest of the walk continues.
func (g *Ingester) IngestDir(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".srt") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fileStats, err := g.IngestFile(ctx, path)
		if err != nil {
			g.logger.Error("skipping subtitle file",
				"path", path,
				"error", err,
			)
			stats.SourcesFailed++
			return nil
		}

		stats.SourcesIndexed++
		stats.ChunksIndexed += fileStats.ChunksIndexed
		stats.AdCuesRemoved += fileStats.AdCuesRemoved
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walking %s: %w", dir, err)
	}

	g.logger.Info("ingest complete",
		"dir", dir,
		"sources", stats.SourcesIndexed,
		"failed", stats.SourcesFailed,
		"chunks", stats.ChunksIndexed,
	)

	return stats, nil
}

// IngestFile ingests a single subtitle file. The source name is the file's
// base name, so re-ingesting the same file trips the index's duplicate
// detection rather than double-indexing.
func (g *Ingester) IngestFile(ctx context.Context, path string) (Stats, error) {
	var stats Stats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("reading subtitle: %w", err)
	}

	cues, err := subtitles.Parse(string(data))
	if err != nil {
		return stats, fmt.Errorf("parsing subtitle: %w", err)
	}

	cues, removed := subtitles.Clean(cues)
	stats.AdCuesRemoved = removed

	sourceName := filepath.Base(path)
	records := g.chunker.Chunk(sourceName, cues)
	if len(records) == 0 {
		g.logger.Warn("subtitle produced no chunks",
			"path", path,
		)
		return stats, nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	vectors, err := g.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return stats, fmt.Errorf("embedding chunks: %w", err)
	}

	chunks := make([]vector.Chunk, len(records))
	for i, record := range records {
		chunks[i] = vector.Chunk{
			ID:             record.ID,
			SourceName:     record.SourceName,
			SequenceNumber: record.SequenceNumber,
			Text:           record.Text,
			Embedding:      vectors[i],
		}
	}

	if err := g.index.Insert(ctx, chunks...); err != nil {
		if errors.Is(err, vector.ErrDuplicateID) {
			return stats, fmt.Errorf("source already indexed: %w", err)
		}
		return stats, fmt.Errorf("inserting chunks: %w", err)
	}
	stats.ChunksIndexed = len(chunks)

	for _, chunk := range chunks {
		event := &eventstream.ChunkIndexedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeChunkIndexed,
			EventID:       uuid.NewString(),
			EmittedAt:     time.Now().UTC(),
			Chunk: eventstream.ChunkMeta{
				ChunkID:        chunk.ID,
				SourceName:     chunk.SourceName,
				SequenceNumber: chunk.SequenceNumber,
				TextLength:     len(chunk.Text),
				Dimensions:     len(chunk.Embedding),
			},
		}
		if err := g.publisher.PublishChunk(ctx, event); err != nil {
			// The chunk is already indexed; a publish failure should
			// not unwind the ingest.
			g.logger.Error("publishing chunk event",
				"chunk_id", chunk.ID,
				"error", err,
			)
		}
	}

	g.logger.Debug("ingested subtitle",
		"source", sourceName,
		"chunks", len(chunks),
		"ads_removed", removed,
	)

	return stats, nil
}
