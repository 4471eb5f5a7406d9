package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/xhad/ragd/internal/models"
)

// ChatConfig configures the generation client.
type ChatConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string
	MaxAttempts int
}

// ChatEngine streams answers from the generation provider. Streaming is the
// only mode: tokens reach the caller as they arrive, never buffered into a
// full response first.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

func NewChatEngine(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaultMaxAttempts
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, &models.ProviderError{Provider: "ollama", Err: err}
	}

	return &ChatEngine{config: config, llm: llm}, nil
}

// Stream generates an answer for the conversation under the given system
// instruction, delivering tokens to onToken as they arrive. Throttling
// before the first token is retried with backoff; once a token has reached
// the caller no retry happens, since it would repeat delivered output.
// Cancelling ctx (client disconnect) stops generation; tokens already
// delivered stand.
func (ce *ChatEngine) Stream(ctx context.Context, system string, messages []models.Message, onToken func(string) error) error {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, system))

	for _, msg := range messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		role := schema.ChatMessageTypeHuman
		switch msg.Role {
		case models.RoleAssistant:
			role = schema.ChatMessageTypeAI
		case models.RoleSystem:
			role = schema.ChatMessageTypeSystem
		}
		content = append(content, llms.TextParts(role, text))
	}

	var lastErr error
	for attempt := 0; attempt < ce.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt, defaultRetryDelay); err != nil {
				return err
			}
		}

		started := false
		_, err := ce.llm.GenerateContent(ctx, content,
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				started = true
				return onToken(string(chunk))
			}),
		)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = classify("ollama", err)
		if started || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
