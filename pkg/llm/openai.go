package llm

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xhad/ragd/internal/models"
)

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	config EmbedderConfig
	client *openai.Client
}

func NewOpenAIEmbedder(config EmbedderConfig) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &models.ConfigurationError{
			Field:   "OPENAI_API_KEY",
			Message: "environment variable not set",
		}
	}

	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Dimension == 0 {
		config.Dimension = 1536
		if config.Model == "text-embedding-3-large" {
			config.Dimension = 3072
		}
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaultMaxAttempts
	}

	return &OpenAIEmbedder{config: config, client: openai.NewClient(key)}, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.config.Dimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return withRetry(ctx, e.config.MaxAttempts, defaultRetryDelay, func() ([]float32, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.config.Model),
			Input: []string{text},
		})
		if err != nil {
			return nil, classifyOpenAI(err)
		}
		if len(resp.Data) == 0 {
			return nil, &models.ProviderError{Provider: "openai", Err: errors.New("no embedding data returned")}
		}

		raw := resp.Data[0].Embedding
		vec := make([]float32, len(raw))
		for i, f := range raw {
			vec[i] = float32(f)
		}
		return vec, nil
	})
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return &models.RateLimitError{Provider: "openai", Err: err}
	}
	return classify("openai", err)
}
