// Package sqlitevec provides a SQLite-backed vector index using sqlite-vec.
//
// This is the default persistent backend: a single database file holds the
// chunk metadata table and a vec0 virtual table configured for cosine
// distance KNN queries.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/echoplexco/subscout/pkg/vector"
)

// Index implements vector.Index using SQLite with sqlite-vec.
type Index struct {
	db     *sql.DB
	dims   uint
	logger *slog.Logger
}

// Config holds configuration for the sqlite-vec index.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding vector dimensionality. Must match the
	// embedding provider's output width.
	Dimensions uint
}

// NewIndex opens (creating if necessary) a sqlite-vec backed index.
func NewIndex(c Config, logger *slog.Logger) (*Index, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrUnavailable, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrUnavailable, err)
	}

	// Chunk metadata table. vec0 virtual tables use integer rowids, so the
	// string chunk IDs map through this table.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			source_name TEXT NOT NULL DEFAULT '',
			sequence_number INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	// vec0 virtual table for storage and KNN queries. distance_metric=cosine
	// makes MATCH report cosine distance directly.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec index initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Index{
		db:     db,
		dims:   c.Dimensions,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Insert adds chunks to the index. Chunk IDs are unique; a duplicate anywhere
// in the batch rolls the whole batch back with ErrDuplicateID.
func (idx *Index) Insert(ctx context.Context, chunks ...vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if uint(len(chunk.Embedding)) != idx.dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				vector.ErrDimension, chunk.ID, len(chunk.Embedding), idx.dims)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrUnavailable, err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO chunks(chunk_id, source_name, sequence_number, text) VALUES (?, ?, ?, ?)`,
			chunk.ID, chunk.SourceName, chunk.SequenceNumber, chunk.Text,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", vector.ErrDuplicateID, chunk.ID)
			}
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for chunk %s: %w", chunk.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunk_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	idx.logger.Debug("inserted chunks into sqlite-vec",
		"count", len(chunks),
	)

	return nil
}

// Query returns up to k nearest chunks by cosine distance, ties broken by
// ascending chunk id.
func (idx *Index) Query(ctx context.Context, embedding []float32, k int) ([]vector.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	if uint(len(embedding)) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			vector.ErrDimension, len(embedding), idx.dims)
	}

	// KNN query via vec0 MATCH, joined back for chunk id and metadata.
	rows, err := idx.db.QueryContext(ctx, `
		SELECT
			c.chunk_id,
			c.source_name,
			c.sequence_number,
			c.text,
			ce.distance
		FROM chunk_embeddings ce
		INNER JOIN chunks c ON c.rowid = ce.rowid
		WHERE ce.embedding MATCH ?
			AND ce.k = ?
		ORDER BY ce.distance, c.chunk_id
	`, serializeFloat32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %v", vector.ErrUnavailable, err)
	}
	defer rows.Close()

	matches := make([]vector.Match, 0, k)
	for rows.Next() {
		var m vector.Match
		var distance float64
		if err := rows.Scan(&m.ID, &m.SourceName, &m.SequenceNumber, &m.Text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		m.Distance = float32(distance)
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	idx.logger.Debug("queried sqlite-vec",
		"results", len(matches),
	)

	return matches, nil
}

// Count returns the total number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", vector.ErrUnavailable, err)
	}
	return count, nil
}

// Close releases resources held by the index.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

var _ vector.Index = (*Index)(nil)
