package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"icyco-rag/internal/config"
)

// NewEmbedder creates the embedder configured in cfg. dimension is only used
// by the local hashing embedder, hosted models have a fixed size.
func NewEmbedder(ctx context.Context, cfg *config.LLMConfig, dimension int) (embeddings.Embedder, error) {
	log.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("Initializing embedding model...")

	var (
		client embeddings.EmbedderClient
		err    error
	)
	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		client, err = ollama.New(opts...)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err = openai.New(opts...)
	case "googleai":
		if cfg.Key == "" {
			return nil, fmt.Errorf("googleai embedder requires an API key")
		}
		opts := []googleai.Option{googleai.WithAPIKey(cfg.Key)}
		if cfg.Model != "" {
			opts = append(opts, googleai.WithDefaultEmbeddingModel(cfg.Model))
		}
		client, err = googleai.New(ctx, opts...)
	case "hashing":
		return NewHashingEmbedder(dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s embedding client: %w", cfg.Provider, err)
	}

	var opts []embeddings.Option
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
