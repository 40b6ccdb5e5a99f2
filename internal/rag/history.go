package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/memory"
)

const (
	historyInputKey  = "question"
	historyOutputKey = "answer"
	historyMemoryKey = "history"
)

// History keeps the last turns of the conversation for the chat_history slot.
type History struct {
	buf *memory.ConversationWindowBuffer
}

func NewHistory(turns int) *History {
	return &History{buf: memory.NewConversationWindowBuffer(turns,
		memory.WithInputKey(historyInputKey),
		memory.WithOutputKey(historyOutputKey),
		memory.WithMemoryKey(historyMemoryKey),
		memory.WithHumanPrefix("user"),
		memory.WithAIPrefix("Assistant"),
	)}
}

// String renders the kept turns as "user: ...\nAssistant: ..." lines.
func (h *History) String(ctx context.Context) (string, error) {
	vars, err := h.buf.LoadMemoryVariables(ctx, map[string]any{})
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}
	s, _ := vars[historyMemoryKey].(string)
	return s, nil
}

func (h *History) Add(ctx context.Context, question, answer string) error {
	err := h.buf.SaveContext(ctx,
		map[string]any{historyInputKey: question},
		map[string]any{historyOutputKey: answer},
	)
	if err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

func (h *History) Clear(ctx context.Context) error {
	return h.buf.Clear(ctx)
}
