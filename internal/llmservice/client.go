package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"icyco-rag/internal/config"
)

// Generator sends one fully composed prompt to a language model and returns
// the generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New creates the generator for llmConfig.Provider.
func New(ctx context.Context, llmConfig *config.LLMConfig) (Generator, error) {
	log.Info().Str("provider", llmConfig.Provider).Str("model", llmConfig.Model).Msg("Initializing LLM model...")

	switch llmConfig.Provider {
	case "googleai":
		if llmConfig.Key == "" {
			return nil, fmt.Errorf("googleai provider requires GOOGLE_API_KEY")
		}
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(llmConfig.Key),
			googleai.WithDefaultModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create googleai client: %w", err)
		}
		return &ModelGenerator{Model: llm, Temperature: llmConfig.Temperature}, nil
	case "genai":
		return NewGenAI(ctx, llmConfig)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return &ModelGenerator{Model: llm, Temperature: llmConfig.Temperature}, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return &ModelGenerator{Model: llm, Temperature: llmConfig.Temperature}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", llmConfig.Provider)
	}
}

// ModelGenerator adapts any langchaingo model.
type ModelGenerator struct {
	Model       llms.Model
	Temperature *float64
}

func (g *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var opts []llms.CallOption
	if g.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*g.Temperature))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, g.Model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	return out, nil
}
