package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xhad/ragd/internal/models"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// classify maps a provider failure onto the error taxonomy. Throttling is
// transient and retryable; everything else propagates as a provider error.
func classify(provider string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "overloaded") {
		return &models.RateLimitError{Provider: provider, Err: err}
	}
	return &models.ProviderError{Provider: provider, Err: err}
}

// retryable reports whether err is transient throttling.
func retryable(err error) bool {
	var throttled *models.RateLimitError
	return errors.As(err, &throttled)
}

// backoff sleeps out the exponential delay preceding retry attempt, or
// returns early when ctx is cancelled.
func backoff(ctx context.Context, attempt int, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay << (attempt - 1)):
		return nil
	}
}

// withRetry runs fn up to attempts times, backing off exponentially from
// delay between tries. Only RateLimitError is retried; any other failure
// returns immediately.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() ([]float32, error)) ([]float32, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt, delay); err != nil {
				return nil, err
			}
		}

		vec, err := fn()
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
