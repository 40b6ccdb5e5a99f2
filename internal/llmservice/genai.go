package llmservice

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"icyco-rag/internal/config"
)

// GenAIGenerator talks to the Gemini API through the official client.
type GenAIGenerator struct {
	client      *genai.Client
	model       string
	temperature *float64
}

func NewGenAI(ctx context.Context, llmConfig *config.LLMConfig) (*GenAIGenerator, error) {
	if llmConfig.Key == "" {
		return nil, fmt.Errorf("genai provider requires GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  llmConfig.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: llmConfig.Model, temperature: llmConfig.Temperature}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if g.temperature != nil {
		cfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(*g.temperature))}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	return resp.Text(), nil
}
