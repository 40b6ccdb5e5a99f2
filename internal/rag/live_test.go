package rag

import (
	"context"
	"os"
	"strings"
	"testing"

	"icyco-rag/internal/config"
	"icyco-rag/internal/llmservice"
)

// Prompt compliance can only be checked against the hosted model and the
// answer is not deterministic.
func TestLiveOffTopicRefusal(t *testing.T) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" || testing.Short() {
		t.Skip("GOOGLE_API_KEY not set")
	}

	ctx := context.Background()
	llm, err := llmservice.New(ctx, &config.LLMConfig{Provider: "googleai", Model: "gemini-2.0-flash", Key: key})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRAG(buildStore(t), llm)

	resp, err := r.Query(ctx, "What is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "questions about Icyco only") {
		t.Errorf("expected the refusal message, got %q", resp.Answer)
	}
	if strings.Contains(resp.Answer, "Paris") {
		t.Errorf("model answered an off-topic question: %q", resp.Answer)
	}
}
