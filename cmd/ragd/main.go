package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/ragd/internal/models"
	"github.com/xhad/ragd/internal/types"
	"github.com/xhad/ragd/pkg/config"
	"github.com/xhad/ragd/pkg/ingest"
	"github.com/xhad/ragd/pkg/llm"
	"github.com/xhad/ragd/pkg/loader"
	"github.com/xhad/ragd/pkg/normalizer"
	"github.com/xhad/ragd/pkg/rag"
	"github.com/xhad/ragd/pkg/splitter"
	"github.com/xhad/ragd/pkg/store"
	"github.com/xhad/ragd/server"
)

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	case "clear":
		err = runClear(ctx, os.Args[2:])
	case "check":
		err = runCheck(ctx, os.Args[2:])
	case "count":
		err = runCount(ctx, os.Args[2:])
	case "chat":
		err = runChat(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ragd <command> [flags]

commands:
  serve   start the HTTP chat server
  seed    create the collection and ingest the configured sources
  clear   drop the collection
  check   print a preview of a few stored records
  count   report the number of stored records
  chat    interactive chat against the knowledge base`)
}

// loadConfig parses common flags, loads the config file, and fails fast on
// any missing required value.
func loadConfig(name string, args []string) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	dbURL := fs.String("db-url", "", "PostgreSQL connection string (overrides config)")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	if *dbURL != "" {
		cfg.Database.URL = *dbURL
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs[1:] {
			color.Red("config: %v", e)
		}
		return nil, errs[0]
	}
	return cfg, nil
}

// buildStore sizes the collection from the given dimension. Commands that
// embed derive it from the constructed embedder so the two cannot drift;
// commands that never touch vectors pass the config value.
func buildStore(ctx context.Context, cfg *config.Config, dimension int) (*store.VectorStore, error) {
	return store.NewWithConfig(ctx, store.Config{
		ConnString:   cfg.Database.URL,
		Collection:   cfg.Database.Collection,
		Dimension:    dimension,
		Metric:       cfg.Database.Metric,
		CountCeiling: cfg.Database.CountCeiling,
	})
}

func buildEmbedder(cfg *config.Config) (types.Embedder, error) {
	return llm.NewEmbedder(llm.EmbedderConfig{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	})
}

func newOrchestrator(cfg *config.Config, embedder types.Embedder, vs *store.VectorStore, logger *zap.Logger) (*rag.Orchestrator, error) {
	engine, err := llm.NewChatEngine(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return rag.New(rag.Config{
		TopK:           cfg.Database.SearchLimit,
		SystemTemplate: cfg.LLM.SystemTemplate,
	}, embedder, vs, engine, logger), nil
}

func runServe(ctx context.Context, args []string) error {
	cfg, err := loadConfig("serve", args)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, embedder.Dimension())
	if err != nil {
		return err
	}
	defer vs.Close()

	orchestrator, err := newOrchestrator(cfg, embedder, vs, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{Addr: cfg.Server.Addr}, orchestrator, logger)
	return srv.ListenAndServe()
}

func runSeed(ctx context.Context, args []string) error {
	cfg, err := loadConfig("seed", args)
	if err != nil {
		return err
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, embedder.Dimension())
	if err != nil {
		return err
	}
	defer vs.Close()

	if err := vs.CreateCollection(ctx); err != nil {
		return err
	}

	ld := loader.NewWithConfig(loader.Config{
		Timeout:   time.Duration(cfg.Loader.TimeoutSecs) * time.Second,
		RateLimit: cfg.Loader.RateLimit,
	})
	defer ld.Close()

	color.Blue("\nSeeding from %d sources\n", len(cfg.Sources))
	bar := getSpinner("Ingesting pages...")

	pipeline := ingest.New(ingest.Config{
		MaxDepth:          cfg.Loader.MaxDepth,
		IgnorePatterns:    cfg.Loader.IgnorePatterns,
		AllowedExtensions: cfg.Loader.AllowedExtensions,
		OnProgress: func(url string) {
			bar.Add(1)
		},
	}, ld, normalizer.New(), splitter.New(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap), embedder, vs, logger)

	chunks, err := pipeline.Run(ctx, cfg.Sources)
	bar.Finish()
	if err != nil {
		return err
	}

	color.Green("\n✓ Stored %d chunks from %d sources\n", chunks, len(cfg.Sources))
	return nil
}

func runClear(ctx context.Context, args []string) error {
	cfg, err := loadConfig("clear", args)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, cfg.Embedding.Dimension)
	if err != nil {
		return err
	}
	defer vs.Close()

	if err := vs.Drop(ctx); err != nil {
		return err
	}
	color.Green("✓ Collection %s dropped\n", cfg.Database.Collection)
	return nil
}

func runCheck(ctx context.Context, args []string) error {
	cfg, err := loadConfig("check", args)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, cfg.Embedding.Dimension)
	if err != nil {
		return err
	}
	defer vs.Close()

	records, err := vs.Sample(ctx, 5)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		color.Yellow("collection is empty\n")
		return nil
	}

	for _, rec := range records {
		color.Cyan("%s [%d]", rec.SourceURL, rec.Sequence)
		fmt.Println(preview(rec.Text, 120))
	}
	return nil
}

func runCount(ctx context.Context, args []string) error {
	cfg, err := loadConfig("count", args)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, cfg.Embedding.Dimension)
	if err != nil {
		return err
	}
	defer vs.Close()

	count, err := vs.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s documents\n", count)
	return nil
}

func runChat(ctx context.Context, args []string) error {
	cfg, err := loadConfig("chat", args)
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	vs, err := buildStore(ctx, cfg, embedder.Dimension())
	if err != nil {
		return err
	}
	defer vs.Close()

	orchestrator, err := newOrchestrator(cfg, embedder, vs, zap.NewNop())
	if err != nil {
		return err
	}

	color.Cyan("\nChat with your knowledge base (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var history []models.Message
	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		history = append(history, models.Message{Role: models.RoleUser, Content: query})

		assistantPrompt("Assistant: ")
		var answer strings.Builder
		err := orchestrator.Answer(ctx, history, func(token string) error {
			fmt.Print(token)
			answer.WriteString(token)
			return nil
		})
		fmt.Println()
		if err != nil {
			color.Red("Error: %v", err)
			history = history[:len(history)-1]
			continue
		}

		history = append(history, models.Message{Role: models.RoleAssistant, Content: answer.String()})
	}
	return nil
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
