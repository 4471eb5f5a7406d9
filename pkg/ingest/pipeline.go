package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/xhad/ragd/internal/models"
	"github.com/xhad/ragd/internal/types"
)

// Config configures an ingestion run.
type Config struct {
	MaxDepth          int      // 0: ingest the configured URLs only
	IgnorePatterns    []string // substrings that exclude a URL from the crawl
	AllowedExtensions []string
	OnProgress        func(url string)
}

// Pipeline runs the ingestion path: fetch, normalize, split, then per chunk
// embed and insert. Chunks of one document are processed strictly in order
// so their sequence numbers stay deterministic.
type Pipeline struct {
	config     Config
	loader     types.Loader
	normalizer types.Normalizer
	splitter   types.Splitter
	embedder   types.Embedder
	store      types.VectorStore
	logger     *zap.Logger
}

func New(config Config, loader types.Loader, normalizer types.Normalizer, splitter types.Splitter, embedder types.Embedder, store types.VectorStore, logger *zap.Logger) *Pipeline {
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		config:     config,
		loader:     loader,
		normalizer: normalizer,
		splitter:   splitter,
		embedder:   embedder,
		store:      store,
		logger:     logger,
	}
}

// Run ingests every source URL in order. The first failing document aborts
// the run; records inserted before the failure remain in the store.
func (p *Pipeline) Run(ctx context.Context, urls []string) (int, error) {
	total := 0
	for _, u := range urls {
		var n int
		var err error
		if p.config.MaxDepth > 0 {
			n, err = p.crawl(ctx, u)
		} else {
			n, err = p.IngestURL(ctx, u)
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// IngestURL runs the full pipeline for a single page and returns the number
// of chunks stored.
func (p *Pipeline) IngestURL(ctx context.Context, url string) (int, error) {
	raw, err := p.loader.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	return p.ingestHTML(ctx, url, raw)
}

func (p *Pipeline) ingestHTML(ctx context.Context, url, raw string) (int, error) {
	if p.config.OnProgress != nil {
		p.config.OnProgress(url)
	}

	text, err := p.normalizer.Normalize(raw)
	if err != nil {
		return 0, err
	}

	chunks := p.splitter.Split(text)
	for i, body := range chunks {
		vector, err := p.embedder.Embed(ctx, body)
		if err != nil {
			return 0, err
		}
		rec := models.Record{
			Vector:    vector,
			Text:      body,
			SourceURL: url,
			Sequence:  i,
		}
		if err := p.store.Insert(ctx, rec); err != nil {
			return 0, err
		}
	}

	p.logger.Info("ingested document",
		zap.String("url", url),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
