package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"icyco-rag/internal/chromemdb"
	"icyco-rag/internal/config"
	"icyco-rag/internal/db"
	"icyco-rag/internal/embedding"
	"icyco-rag/internal/helper"
	"icyco-rag/internal/llmservice"
	"icyco-rag/internal/models"
	"icyco-rag/internal/parser"
	"icyco-rag/internal/pinecone"
	"icyco-rag/internal/rag"
	"icyco-rag/internal/vectorstore"
)

const (
	configFilePath = "./configs/config.yaml"
	defaultQuery   = "What flavors does Icyco offer?"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	query := flag.String("query", defaultQuery, "Question to be answered")
	chat := flag.Bool("chat", false, "Read questions from stdin until exit")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk the documents, do not touch the index")
	pretty := flag.Bool("pretty", false, "Render the answer as markdown")
	export := flag.Bool("export", false, "Export the chromem collection after ingestion")
	rebuild := flag.Bool("rebuild", false, "Drop the index and ingest the documents again")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// .env is optional, real env vars win
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Str("provider", cfg.Index.Provider).Str("index", cfg.Index.Name).Msg("Loaded config")

	if *dryRun {
		if err := chunkDocuments(cfg); err != nil {
			log.Fatal().Err(err).Msg("Error parsing documents")
		}
		return
	}

	ragSystem, cleanup, err := setup(ctx, cfg, *export, *rebuild)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing RAG system")
	}
	defer cleanup()

	out := responsePrinter(*pretty)
	if !*chat {
		if err := answer(ctx, ragSystem, *query, out); err != nil {
			log.Fatal().Err(err).Msg("Error querying")
		}
		return
	}
	if err := chatLoop(ctx, ragSystem, os.Stdin, out); err != nil {
		log.Fatal().Err(err).Msg("Error in chat")
	}
}

func chunkDocuments(cfg *config.Config) error {
	loader, err := parser.NewLoader(cfg)
	if err != nil {
		return err
	}
	for _, file := range cfg.Documents {
		chunks, err := loader.Chunks(file)
		if err != nil {
			return err
		}
		log.Info().Str("file", file).Int("chunks", len(chunks)).Msg("Parsed document")
		helper.PrettyPrint(chunks)
	}
	return nil
}

// setup wires the configured index provider, embedder and llm into a RAG.
// The returned cleanup closes whatever the provider opened.
func setup(ctx context.Context, cfg *config.Config, export, rebuild bool) (*rag.RAG, func(), error) {
	cleanup := func() {}

	embedder, err := embedding.NewEmbedder(ctx, &cfg.EmbedLLM, cfg.Index.Dimension)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error initializing embedder: %w", err)
	}

	loader, err := parser.NewLoader(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	var (
		provider vectorstore.Provider
		chromem  *chromemdb.VectorDBManager
	)
	switch cfg.Index.Provider {
	case config.ProviderPinecone:
		provider, err = pinecone.New(cfg.Pinecone.APIKey, cfg.Pinecone.Namespace)
	case config.ProviderChromem:
		chromem, err = openChromem(cfg)
		provider = chromem
	case config.ProviderPgvector:
		provider, cleanup, err = openPgvector(cfg)
	default:
		err = fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
	if err != nil {
		return nil, cleanup, err
	}

	spec := vectorstore.IndexSpec{
		Dimension: cfg.Index.Dimension,
		Metric:    cfg.Index.Metric,
		Cloud:     cfg.Index.Cloud,
		Region:    cfg.Index.Region,
	}
	manager := vectorstore.NewManager(provider, embedder, loader, spec,
		vectorstore.WithPollInterval(cfg.Index.PollInterval),
		vectorstore.WithReadyTimeout(cfg.Index.ReadyTimeout),
	)

	if rebuild {
		if err := manager.Drop(ctx, cfg.Index.Name); err != nil {
			return nil, cleanup, err
		}
	}

	store, err := manager.GetVectorStore(ctx, cfg.Index.Name, cfg.Documents)
	if err != nil {
		return nil, cleanup, err
	}
	closeProvider := cleanup
	cleanup = func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing index connection")
		}
		closeProvider()
	}

	if export && chromem != nil {
		if err := exportChromem(chromem, cfg); err != nil {
			return nil, cleanup, err
		}
	}

	llm, err := llmservice.New(ctx, &cfg.LLM)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error initializing llm: %w", err)
	}

	return rag.NewRAG(store, llm,
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithHistoryTurns(cfg.RAG.HistoryTurns),
	), cleanup, nil
}

func openChromem(cfg *config.Config) (*chromemdb.VectorDBManager, error) {
	c := cfg.Chromem
	if !c.InMemory {
		if err := helper.CreateFolder(c.Path); err != nil {
			return nil, fmt.Errorf("error creating folder: %w", err)
		}
	}
	m, err := chromemdb.NewVectorDBManager(c.Path, c.InMemory, c.Compress, c.EncryptionKey)
	if err != nil {
		return nil, err
	}
	if c.ExportPath != "" {
		if err := m.Import(c.ExportPath, cfg.Index.Name); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func exportChromem(m *chromemdb.VectorDBManager, cfg *config.Config) error {
	path := cfg.Chromem.ExportPath
	if path == "" {
		path = filepath.Join(cfg.Chromem.Path, cfg.Index.Name+".gob")
	}
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}
	log.Info().Str("file", path).Msg("Exporting collection")
	return m.Export(path, cfg.Index.Name)
}

func openPgvector(cfg *config.Config) (vectorstore.Provider, func(), error) {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, func() {}, fmt.Errorf("error connecting to database: %w", err)
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	return db.NewProvider(bunDB), func() { bunDB.Close() }, nil
}

type printer func(resp *models.Response)

func responsePrinter(pretty bool) printer {
	if !pretty {
		return func(resp *models.Response) { rag.PrintResponse(os.Stdout, resp) }
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithStylePath("dracula"), glamour.WithWordWrap(100))
	if err != nil {
		log.Warn().Err(err).Msg("Markdown renderer unavailable, printing plain text")
		return func(resp *models.Response) { rag.PrintResponse(os.Stdout, resp) }
	}
	return func(resp *models.Response) {
		rendered := *resp
		if s, err := renderer.Render(resp.Answer); err == nil {
			rendered.Answer = strings.TrimRight(s, "\n")
		}
		rag.PrintResponse(os.Stdout, &rendered)
	}
}

func answer(ctx context.Context, r *rag.RAG, question string, out printer) error {
	resp, err := r.Query(ctx, question)
	if err != nil {
		return err
	}
	out(resp)
	return nil
}

func chatLoop(ctx context.Context, r *rag.RAG, in io.Reader, out printer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("\nuser: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			if err := r.History().Clear(ctx); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			continue
		}
		if err := answer(ctx, r, question, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Error querying")
		}
	}
}
