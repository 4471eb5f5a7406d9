package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading page: %w", &NetworkError{URL: "https://example.com", Err: cause})

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "https://example.com", netErr.URL)
	assert.ErrorIs(t, err, cause)
}

func TestRateLimitErrorDistinctFromProviderError(t *testing.T) {
	err := error(&RateLimitError{Provider: "ollama", Err: errors.New("429")})

	var rateErr *RateLimitError
	var provErr *ProviderError
	assert.ErrorAs(t, err, &rateErr)
	assert.False(t, errors.As(err, &provErr))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&NetworkError{URL: "https://a.io", Err: errors.New("timeout")}, "fetch https://a.io: timeout"},
		{&RateLimitError{Provider: "openai", Err: errors.New("429")}, "openai throttled: 429"},
		{&ProviderError{Provider: "pgvector", Err: errors.New("down")}, "pgvector: down"},
		{&ConfigurationError{Field: "database.url", Message: "required"}, "database.url: required"},
		{&MalformedRequestError{Reason: "no user message"}, "malformed request: no user message"},
	}

	for _, tt := range tests {
		assert.EqualError(t, tt.err, tt.want)
	}
}
