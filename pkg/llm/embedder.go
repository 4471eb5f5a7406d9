package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/xhad/ragd/internal/models"
	"github.com/xhad/ragd/internal/types"
)

// EmbedderConfig configures an embedding client. Dimension is fixed per
// deployment; every vector inserted into or queried against the collection
// must come from the same model.
type EmbedderConfig struct {
	Provider    string // "ollama" (default) or "openai"
	Model       string
	BaseURL     string
	Dimension   int
	MaxAttempts int
}

// NewEmbedder builds the embedding client selected by config.Provider.
func NewEmbedder(config EmbedderConfig) (types.Embedder, error) {
	switch config.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(config)
	case "openai":
		return NewOpenAIEmbedder(config)
	default:
		return nil, &models.ConfigurationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unknown provider %q", config.Provider),
		}
	}
}

// OllamaEmbedder produces embeddings through a local Ollama server.
type OllamaEmbedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

func NewOllamaEmbedder(config EmbedderConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Dimension == 0 {
		config.Dimension = 768
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaultMaxAttempts
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, &models.ProviderError{Provider: "ollama", Err: err}
	}

	return &OllamaEmbedder{config: config, llm: emb}, nil
}

func (e *OllamaEmbedder) Dimension() int { return e.config.Dimension }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return withRetry(ctx, e.config.MaxAttempts, defaultRetryDelay, func() ([]float32, error) {
		vecs, err := e.llm.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return nil, classify("ollama", err)
		}
		if len(vecs) == 0 {
			return nil, &models.ProviderError{Provider: "ollama", Err: errors.New("no embedding returned")}
		}
		return vecs[0], nil
	})
}
