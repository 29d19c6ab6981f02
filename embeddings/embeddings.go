package embeddings

import (
	"context"
	"fmt"

	"github.com/trustvault/questionnaire/config"
)

// Embedder turns texts into dense vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

func NewEmbedder(cfg config.Config) (Embedder, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
	}
	return NewOpenAIEmbedder(Options{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.Embeddings.Dimension,
	}), nil
}
