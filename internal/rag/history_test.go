package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(2)

	for i := 1; i <= 5; i++ {
		if err := h.Add(ctx, fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	s, err := h.String(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"user: question 4", "Assistant: answer 4", "user: question 5", "Assistant: answer 5"} {
		if !strings.Contains(s, want) {
			t.Errorf("history %q missing %q", s, want)
		}
	}
	for _, gone := range []string{"question 1", "question 2", "question 3"} {
		if strings.Contains(s, gone) {
			t.Errorf("history %q still holds %q", s, gone)
		}
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if s, _ := h.String(ctx); s != "" {
		t.Errorf("history after clear = %q", s)
	}
}

func TestHistoryDisabled(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(0)
	if err := h.Add(ctx, "What flavors?", "Vanilla."); err != nil {
		t.Fatal(err)
	}
	if s, _ := h.String(ctx); s != "" {
		t.Errorf("history with no turns kept %q", s)
	}
}
