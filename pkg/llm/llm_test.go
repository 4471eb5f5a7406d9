package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/ragd/internal/models"
)

func TestNewEmbedderSelectsProvider(t *testing.T) {
	emb, err := NewEmbedder(EmbedderConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, emb)

	emb, err = NewEmbedder(EmbedderConfig{})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, emb)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(EmbedderConfig{Provider: "cohere"})

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "embedding.provider", cfgErr.Field)
}

func TestNewOllamaEmbedderDefaults(t *testing.T) {
	emb, err := NewOllamaEmbedder(EmbedderConfig{})
	require.NoError(t, err)

	assert.Equal(t, 768, emb.Dimension())
	assert.Equal(t, "nomic-embed-text:latest", emb.config.Model)
	assert.Equal(t, "http://localhost:11434", emb.config.BaseURL)
	assert.Equal(t, defaultMaxAttempts, emb.config.MaxAttempts)
}

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIEmbedder(EmbedderConfig{Provider: "openai"})

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Field)
}

func TestNewOpenAIEmbedderDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	emb, err := NewOpenAIEmbedder(EmbedderConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.Equal(t, 1536, emb.Dimension())

	emb, err = NewOpenAIEmbedder(EmbedderConfig{Provider: "openai", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, emb.Dimension())
}

func TestNewChatEngineDefaults(t *testing.T) {
	engine, err := NewChatEngine(ChatConfig{})
	require.NoError(t, err)

	assert.Equal(t, "mistral", engine.config.Model)
	assert.Equal(t, 2000, engine.config.MaxTokens)
	assert.Equal(t, "http://localhost:11434", engine.config.BaseURL)
	assert.Equal(t, defaultMaxAttempts, engine.config.MaxAttempts)
}

func TestNewChatEngineRejectsBadConfig(t *testing.T) {
	_, err := NewChatEngine(ChatConfig{Temperature: 2.5})
	assert.Error(t, err)

	_, err = NewChatEngine(ChatConfig{MaxTokens: -1})
	assert.Error(t, err)
}
