// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/echoplexco/subscout/pkg/embeddings"
	"github.com/echoplexco/subscout/pkg/embeddings/ollama"
	"github.com/echoplexco/subscout/pkg/embeddings/openai"
)

type NewProviderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewProvider(o *NewProviderOpts) (embeddings.Provider, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewProvider(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewProvider(openai.Config{
			APIKey:  o.APIKey,
			Model:   o.Model,
			BaseURL: o.TargetURL,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
