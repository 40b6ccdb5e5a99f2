package rag

import (
	"github.com/tmc/langchaingo/prompts"

	"icyco-rag/internal/models"
)

const (
	keyContext     = "context"
	keyChatHistory = "chat_history"
	keyQuestion    = "question"
)

// NewPromptTemplate returns the Icyco assistant prompt. Placeholders appear in
// the order context, chat history, question.
func NewPromptTemplate() prompts.PromptTemplate {
	return prompts.PromptTemplate{
		Template:       models.PromptTemplate,
		InputVariables: []string{keyContext, keyChatHistory, keyQuestion},
		TemplateFormat: prompts.TemplateFormatFString,
	}
}

func formatPrompt(tmpl prompts.PromptTemplate, context, history, question string) (string, error) {
	return tmpl.Format(map[string]any{
		keyContext:     context,
		keyChatHistory: history,
		keyQuestion:    question,
	})
}
