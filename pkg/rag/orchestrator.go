package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/ragd/internal/models"
	"github.com/xhad/ragd/internal/types"
)

// defaultSystemTemplate embeds the grounding context between explicit
// delimiters. The generator is told to prefer the context, to fall back to
// its own knowledge silently, to never expose the retrieval mechanism and to
// answer in markdown. %s receives the context.
const defaultSystemTemplate = `You are an assistant who answers questions about the documentation you have been given. Use the context below to augment what you know. If the context does not include the information needed, answer from your existing knowledge, and never mention what the context does or does not contain or how it was obtained. Format responses using markdown where applicable and do not return images.
------------
START CONTEXT
%s
END CONTEXT
------------`

// Config configures the per-request query coordinator.
type Config struct {
	TopK           int
	SystemTemplate string
}

// Orchestrator runs one retrieval-augmented generation per conversation:
// extract the latest user question, embed it, retrieve the nearest chunks,
// assemble the grounding context and stream the answer. It holds no
// per-request state; concurrent calls are independent.
type Orchestrator struct {
	config    Config
	embedder  types.Embedder
	store     types.VectorStore
	generator types.Generator
	logger    *zap.Logger
}

func New(config Config, embedder types.Embedder, store types.VectorStore, generator types.Generator, logger *zap.Logger) *Orchestrator {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = defaultSystemTemplate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		config:    config,
		embedder:  embedder,
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// Answer streams a grounded answer for the conversation into onToken. A
// conversation with no resolvable user text is handled as an empty query;
// an empty retrieval result still proceeds to generation with an empty
// context.
func (o *Orchestrator) Answer(ctx context.Context, messages []models.Message, onToken func(string) error) error {
	query := models.LatestUserText(messages)

	vector, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return err
	}

	results, err := o.store.Search(ctx, vector, o.config.TopK)
	if err != nil {
		return err
	}
	o.logger.Debug("retrieved context",
		zap.Int("results", len(results)),
		zap.Int("query_len", len(query)),
	)

	system := fmt.Sprintf(o.config.SystemTemplate, BuildContext(results))
	return o.generator.Stream(ctx, system, messages, onToken)
}

// BuildContext joins result texts with a blank line, highest similarity
// first. No results yields the empty string.
func BuildContext(results []models.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Record.Text)
	}
	return strings.Join(texts, "\n\n")
}
