package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/ragd/internal/models"
)

type fakeLoader struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeLoader) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	raw, ok := f.pages[url]
	if !ok {
		return "", &models.NetworkError{URL: url, Err: errors.New("not found")}
	}
	return raw, nil
}

type passNormalizer struct{}

func (passNormalizer) Normalize(raw string) (string, error) { return raw, nil }

// pipeSplitter splits on "|" so tests control chunk boundaries exactly.
type pipeSplitter struct{}

func (pipeSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "|")
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) Dimension() int { return 1 }

type captureStore struct {
	inserts   []models.Record
	insertErr error
}

func (c *captureStore) Insert(_ context.Context, rec models.Record) error {
	if c.insertErr != nil {
		return c.insertErr
	}
	c.inserts = append(c.inserts, rec)
	return nil
}

func (c *captureStore) CreateCollection(context.Context) error { return nil }
func (c *captureStore) Search(context.Context, []float32, int) ([]models.SearchResult, error) {
	return nil, nil
}
func (c *captureStore) Drop(context.Context) error { return nil }
func (c *captureStore) Sample(context.Context, int) ([]models.Record, error) {
	return nil, nil
}
func (c *captureStore) Count(context.Context) (string, error) { return "0", nil }
func (c *captureStore) Close()                                {}

func newTestPipeline(config Config, loader *fakeLoader, embedder *fakeEmbedder, store *captureStore) *Pipeline {
	return New(config, loader, passNormalizer{}, pipeSplitter{}, embedder, store, nil)
}

func TestIngestURL(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/a": "first|second|third",
	}}
	store := &captureStore{}

	p := newTestPipeline(Config{}, loader, &fakeEmbedder{}, store)
	n, err := p.IngestURL(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, store.inserts, 3)
	for i, rec := range store.inserts {
		assert.Equal(t, i, rec.Sequence)
		assert.Equal(t, "https://example.com/a", rec.SourceURL)
		assert.NotEmpty(t, rec.Vector)
	}
	assert.Equal(t, "first", store.inserts[0].Text)
	assert.Equal(t, "third", store.inserts[2].Text)
}

func TestRunTotalsAcrossSources(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/a": "one|two",
		"https://example.com/b": "three",
	}}
	store := &captureStore{}

	p := newTestPipeline(Config{}, loader, &fakeEmbedder{}, store)
	n, err := p.Run(context.Background(), []string{"https://example.com/a", "https://example.com/b"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.inserts, 3)
}

func TestRunAbortsOnFetchFailure(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/a": "one|two",
	}}
	store := &captureStore{}

	p := newTestPipeline(Config{}, loader, &fakeEmbedder{}, store)
	n, err := p.Run(context.Background(), []string{
		"https://example.com/a",
		"https://example.com/missing",
		"https://example.com/never-reached",
	})

	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "https://example.com/missing", netErr.URL)

	// Records stored before the failure remain.
	assert.Equal(t, 2, n)
	assert.Len(t, store.inserts, 2)
	assert.NotContains(t, loader.fetched, "https://example.com/never-reached")
}

func TestIngestAbortsOnEmbedFailure(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/a": "one|two",
	}}
	embedder := &fakeEmbedder{err: &models.ProviderError{Provider: "ollama", Err: errors.New("down")}}
	store := &captureStore{}

	p := newTestPipeline(Config{}, loader, embedder, store)
	_, err := p.Run(context.Background(), []string{"https://example.com/a"})

	var provErr *models.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Empty(t, store.inserts)
}

func TestRunReportsProgress(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/a": "one",
		"https://example.com/b": "two",
	}}

	var seen []string
	p := newTestPipeline(Config{
		OnProgress: func(url string) { seen = append(seen, url) },
	}, loader, &fakeEmbedder{}, &captureStore{})

	_, err := p.Run(context.Background(), []string{"https://example.com/a", "https://example.com/b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, seen)
}
