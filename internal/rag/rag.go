package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"icyco-rag/internal/llmservice"
	"icyco-rag/internal/models"
)

var ErrEmptyQuestion = errors.New("question is empty")

const (
	defaultTopK         = 3
	defaultHistoryTurns = 5
)

// RAG answers questions from the chunks retrieved out of a vector store.
type RAG struct {
	retriever schema.Retriever
	llm       llmservice.Generator
	prompt    prompts.PromptTemplate
	history   *History
}

type Option func(*options)

type options struct {
	topK         int
	historyTurns int
	prompt       *prompts.PromptTemplate
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(o *options) { o.topK = k }
}

func WithHistoryTurns(n int) Option {
	return func(o *options) { o.historyTurns = n }
}

func WithPrompt(p prompts.PromptTemplate) Option {
	return func(o *options) { o.prompt = &p }
}

func NewRAG(store vectorstores.VectorStore, llm llmservice.Generator, opts ...Option) *RAG {
	log.Info().Msg("Initializing QA RAG system...")
	o := options{topK: defaultTopK, historyTurns: defaultHistoryTurns}
	for _, opt := range opts {
		opt(&o)
	}
	if o.topK <= 0 {
		o.topK = defaultTopK
	}

	prompt := NewPromptTemplate()
	if o.prompt != nil {
		prompt = *o.prompt
	}

	r := &RAG{
		retriever: vectorstores.ToRetriever(store, o.topK),
		llm:       llm,
		prompt:    prompt,
		history:   NewHistory(o.historyTurns),
	}
	log.Info().Int("top_k", o.topK).Int("history_turns", o.historyTurns).Msg("The RAG system is successfully initialized.")
	return r
}

// Query retrieves the nearest chunks, composes the prompt with the chat
// history and asks the model once.
func (r *RAG) Query(ctx context.Context, question string) (*models.Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	docs, err := r.retriever.GetRelevantDocuments(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve documents: %w", err)
	}
	log.Debug().Int("documents", len(docs)).Msg("Retrieved documents")

	history, err := r.history.String(ctx)
	if err != nil {
		return nil, err
	}

	prompt, err := formatPrompt(r.prompt, joinContext(docs), history, question)
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}

	answer, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if err := r.history.Add(ctx, question, answer); err != nil {
		return nil, err
	}

	sources := make([]models.Chunk, len(docs))
	for i, doc := range docs {
		sources[i] = chunkFromDocument(doc)
	}
	return &models.Response{Query: question, Answer: answer, Sources: sources}, nil
}

// History exposes the conversation buffer, mainly to reset it.
func (r *RAG) History() *History {
	return r.history
}

func joinContext(docs []schema.Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n")
}

func chunkFromDocument(doc schema.Document) models.Chunk {
	c := models.Chunk{Content: doc.PageContent, Score: doc.Score}
	c.Title = metaString(doc.Metadata, models.MetaTitle)
	c.PageLabel = metaString(doc.Metadata, models.MetaPageLabel)
	c.Source = metaString(doc.Metadata, models.MetaSource)
	c.ChunkID, _ = strconv.Atoi(metaString(doc.Metadata, models.MetaChunkID))
	return c
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
