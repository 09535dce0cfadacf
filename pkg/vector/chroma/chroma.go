// Package chroma provides a Chroma vector database index implementation.
//
// The collection is created with hnsw:space=cosine so reported distances are
// cosine distances, matching the rest of the system. Chroma's HNSW search is
// approximate; recall against the exact memory backend is exercised in
// integration testing before swapping it in.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/echoplexco/subscout/pkg/vector"
)

// DefaultCollectionName is the default collection for subtitle embeddings.
const DefaultCollectionName = "subtitle_embeddings"

// Index implements vector.Index using Chroma's REST API.
type Index struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma index.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewIndex creates a new Chroma-backed vector index.
func NewIndex(c Config, logger *slog.Logger) (*Index, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	idx := &Index{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	collectionID, err := idx.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q: %v",
			vector.ErrUnavailable, collectionName, err)
	}
	idx.collectionID = collectionID

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", collectionID,
	)

	return idx, nil
}

func (idx *Index) collectionsURL() string {
	return fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", idx.baseURL)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (idx *Index) getOrCreateCollection(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/%s", idx.collectionsURL(), idx.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it with cosine distance.
	jsonBody, err := json.Marshal(chromaCreateRequest{
		Name:     idx.collectionName,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", idx.collectionsURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = idx.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// Insert adds chunks to the collection. Chroma upserts silently on repeated
// IDs, so existing IDs are checked first to honor the duplicate contract.
func (idx *Index) Insert(ctx context.Context, chunks ...vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	documents := make([]string, len(chunks))

	seen := make(map[string]struct{}, len(chunks))
	for i, chunk := range chunks {
		if _, ok := seen[chunk.ID]; ok {
			return fmt.Errorf("%w: %s appears twice in batch", vector.ErrDuplicateID, chunk.ID)
		}
		seen[chunk.ID] = struct{}{}

		ids[i] = chunk.ID
		embeddings[i] = chunk.Embedding
		metadatas[i] = map[string]any{
			"source_name":     chunk.SourceName,
			"sequence_number": chunk.SequenceNumber,
		}
		documents[i] = chunk.Text
	}

	existing, err := idx.existingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing[0])
	}

	jsonBody, err := json.Marshal(chromaAddRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  documents,
	})
	if err != nil {
		return fmt.Errorf("marshaling add request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/add", idx.collectionsURL(), idx.collectionID)
	if err := idx.post(ctx, url, jsonBody, nil); err != nil {
		return fmt.Errorf("adding chunks: %w", err)
	}

	idx.logger.Debug("added chunks to chroma",
		"count", len(chunks),
	)

	return nil
}

// existingIDs returns which of the given IDs are already stored.
func (idx *Index) existingIDs(ctx context.Context, ids []string) ([]string, error) {
	jsonBody, err := json.Marshal(chromaGetRequest{IDs: ids, Include: []string{}})
	if err != nil {
		return nil, fmt.Errorf("marshaling get request: %w", err)
	}

	var getResp chromaGetResponse
	url := fmt.Sprintf("%s/%s/get", idx.collectionsURL(), idx.collectionID)
	if err := idx.post(ctx, url, jsonBody, &getResp); err != nil {
		return nil, fmt.Errorf("checking existing ids: %w", err)
	}

	sort.Strings(getResp.IDs)
	return getResp.IDs, nil
}

// Query returns up to k nearest chunks by cosine distance.
func (idx *Index) Query(ctx context.Context, embedding []float32, k int) ([]vector.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []vector.Match{}, nil
	}
	// Chroma errors when n_results exceeds the collection size.
	if k > count {
		k = count
	}

	jsonBody, err := json.Marshal(chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        k,
		Include:         []string{"documents", "metadatas", "distances"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	var queryResp chromaQueryResponse
	url := fmt.Sprintf("%s/%s/query", idx.collectionsURL(), idx.collectionID)
	if err := idx.post(ctx, url, jsonBody, &queryResp); err != nil {
		return nil, fmt.Errorf("%w: querying chroma: %v", vector.ErrUnavailable, err)
	}

	if len(queryResp.IDs) == 0 {
		return []vector.Match{}, nil
	}

	matches := make([]vector.Match, 0, len(queryResp.IDs[0]))
	for i, id := range queryResp.IDs[0] {
		m := vector.Match{
			Chunk: vector.Chunk{ID: id},
		}
		if i < len(queryResp.Distances[0]) {
			m.Distance = queryResp.Distances[0][i]
		}
		if i < len(queryResp.Documents[0]) {
			m.Text = queryResp.Documents[0][i]
		}
		if i < len(queryResp.Metadatas[0]) {
			meta := queryResp.Metadatas[0][i]
			if name, ok := meta["source_name"].(string); ok {
				m.SourceName = name
			}
			if seq, ok := meta["sequence_number"].(float64); ok {
				m.SequenceNumber = int(seq)
			}
		}
		matches = append(matches, m)
	}

	// Chroma orders by distance but leaves equal-distance order unspecified;
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
	url := fmt.Sprintf("%s/%s/count", idx.collectionsURL(), idx.collectionID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: sending count request: %v", vector.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: count returned status %d: %s",
			vector.ErrUnavailable, resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}

	return count, nil
}

// Close releases resources held by the index.
func (idx *Index) Close() error {
	return nil
}

// post sends a JSON POST and optionally decodes the response into out.
func (idx *Index) post(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

var _ vector.Index = (*Index)(nil)
