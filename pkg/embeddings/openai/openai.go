// Package openai implements pkg/embeddings' Provider on the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/echoplexco/subscout/pkg/embeddings"
)

// DefaultModel is the default OpenAI embedding model.
const DefaultModel = string(openaisdk.EmbeddingModelTextEmbedding3Small)

// Provider wraps the OpenAI embeddings endpoint.
type Provider struct {
	client openaisdk.Client
	model  openaisdk.EmbeddingModel
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	// APIKey authenticates against the OpenAI API. Falls back to the
	// OPENAI_API_KEY environment variable if empty.
	APIKey string

	// Model is the embedding model to use. Defaults to DefaultModel if empty.
	Model string

	// BaseURL overrides the API endpoint, for proxies or compatible servers.
	BaseURL string
}

// NewProvider creates a new embedding provider backed by the OpenAI API.
func NewProvider(cfg Config) (*Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", embeddings.ErrProviderUnavailable)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: openaisdk.NewClient(opts...),
		model:  openaisdk.EmbeddingModel(model),
	}, nil
}

// Embed converts a single text into a vector embedding.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch converts texts into embeddings, preserving input order. The
// OpenAI API indexes each datum; results are placed by index rather than
// trusting response order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			embeddings.ErrEmbedding, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, datum := range resp.Data {
		idx := int(datum.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", embeddings.ErrEmbedding, idx)
		}
		vec := make([]float32, len(datum.Embedding))
		for i, v := range datum.Embedding {
			vec[i] = float32(v)
		}
		vectors[idx] = vec
	}

	return vectors, nil
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

var _ embeddings.Provider = (*Provider)(nil)
