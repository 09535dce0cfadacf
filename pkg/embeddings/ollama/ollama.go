// Package ollama implements pkg/embeddings' Provider client for Ollama's
// embedding API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/echoplexco/subscout/pkg/embeddings"
)

const (
	// DefaultModel is the default embedding model.
	DefaultModel = "all-minilm"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Provider wraps Ollama's embedding API.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client

	// Model load happens server-side on the first embed call. The warmup is
	// guarded so concurrent first callers trigger exactly one load, and a
	// failed load is sticky: the provider is unusable for the process lifetime.
	warmOnce sync.Once
	warmErr  error
}

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use (e.g., "all-minilm",
	// "nomic-embed-text"). Defaults to DefaultModel if empty.
	Model string
}

// embedRequest is the request body for Ollama's embedding API. Input accepts
// either a single string or an array; we always send an array so single and
// batch calls share one code path.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the response from Ollama's embedding API.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewProvider creates a new embedding provider backed by Ollama.
func NewProvider(cfg Config) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// warm forces the model load once per process. The empty string is a valid,
// cheap input for this. The load runs detached from the caller's context so
// an abandoned first request cannot latch its own cancellation as a permanent
// load failure; the client timeout still bounds the attempt.
func (p *Provider) warm(ctx context.Context) error {
	p.warmOnce.Do(func() {
		if _, err := p.embed(context.WithoutCancel(ctx), []string{""}); err != nil {
			p.warmErr = fmt.Errorf("%w: loading model %q: %v",
				embeddings.ErrProviderUnavailable, p.model, err)
		}
	})
	return p.warmErr
}

// Embed converts a single text into a vector embedding.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch converts texts into embeddings, preserving input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := p.warm(ctx); err != nil {
		return nil, err
	}

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			embeddings.ErrEmbedding, len(texts), len(vectors))
	}

	return vectors, nil
}

func (p *Provider) embed(ctx context.Context, input []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{
		Model: p.model,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", embeddings.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s",
			embeddings.ErrEmbedding, resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrEmbedding, err)
	}

	if len(embedResp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrEmbedding)
	}

	return embedResp.Embeddings, nil
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ embeddings.Provider = (*Provider)(nil)
