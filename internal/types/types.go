package types

import (
	"context"

	"github.com/xhad/ragd/internal/models"
)

// Loader fetches a page and returns its rendered HTML.
type Loader interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Normalizer strips markup and boilerplate from raw HTML, producing clean
// text with collapsed whitespace.
type Normalizer interface {
	Normalize(rawHTML string) (string, error)
}

// Splitter segments normalized text into overlapping chunk bodies.
type Splitter interface {
	Split(text string) []string
}

// Embedder converts a text into a fixed-dimension vector through the
// embedding provider. A blocking remote call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorStore manages a single named collection of embedded chunks.
type VectorStore interface {
	CreateCollection(ctx context.Context) error
	Insert(ctx context.Context, rec models.Record) error
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
	Drop(ctx context.Context) error
	Sample(ctx context.Context, n int) ([]models.Record, error)
	Count(ctx context.Context) (string, error)
	Close()
}

// Generator streams a natural-language answer for a conversation under a
// system instruction. Tokens reach onToken as they arrive; cancelling ctx
// stops generation. Tokens already delivered are never retracted.
type Generator interface {
	Stream(ctx context.Context, system string, messages []models.Message, onToken func(string) error) error
}
