package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/xhad/ragd/internal/models"
)

// Validate checks the loaded configuration. Any returned error is fatal at
// startup; nothing is deferred to first use.
func (c *Config) Validate() []*models.ConfigurationError {
	var errs []*models.ConfigurationError

	if c.Database.URL == "" {
		errs = append(errs, &models.ConfigurationError{
			Field:   "database.url",
			Message: "connection string is required (set DATABASE_URL)",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errs = append(errs, &models.ConfigurationError{
			Field:   "database.url",
			Message: "invalid connection string",
		})
	}

	if c.Database.Metric != "dot" && c.Database.Metric != "cosine" {
		errs = append(errs, &models.ConfigurationError{
			Field:   "database.metric",
			Message: fmt.Sprintf("unsupported metric %q (want dot or cosine)", c.Database.Metric),
		})
	}

	if c.Embedding.Provider == "openai" && os.Getenv("OPENAI_API_KEY") == "" {
		errs = append(errs, &models.ConfigurationError{
			Field:   "OPENAI_API_KEY",
			Message: "required when embedding.provider is openai",
		})
	}

	if c.Embedding.Dimension < 1 {
		errs = append(errs, &models.ConfigurationError{
			Field:   "embedding.dimension",
			Message: "dimension must be positive",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errs = append(errs, &models.ConfigurationError{
			Field:   "llm.base_url",
			Message: "invalid base URL",
		})
	}

	if c.LLM.MaxTokens < 1 {
		errs = append(errs, &models.ConfigurationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, &models.ConfigurationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Loader.RateLimit <= 0 {
		errs = append(errs, &models.ConfigurationError{
			Field:   "loader.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	for _, ext := range c.Loader.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			errs = append(errs, &models.ConfigurationError{
				Field:   "loader.allowed_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	if c.Splitter.ChunkSize < 1 {
		errs = append(errs, &models.ConfigurationError{
			Field:   "splitter.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		errs = append(errs, &models.ConfigurationError{
			Field:   "splitter.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	return errs
}
