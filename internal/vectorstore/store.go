package vectorstore

import (
	"context"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"icyco-rag/internal/helper"
	"icyco-rag/internal/models"
)

const upsertBatchSize = 100

// Store is a langchaingo vector store over a provider index.
type Store struct {
	name      string
	index     Index
	embedder  embeddings.Embedder
	dimension int
}

var _ vectorstores.VectorStore = (*Store)(nil)

func NewStore(name string, index Index, embedder embeddings.Embedder, dimension int) *Store {
	return &Store{name: name, index: index, embedder: embedder, dimension: dimension}
}

func (s *Store) Name() string { return s.name }

// Close releases the index connection when the provider holds one.
func (s *Store) Close() error {
	if c, ok := s.index.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// AddDocuments embeds docs and upserts them. Ids derive from the chunk
// location so adding the same chunk twice overwrites it.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := s.getOptions(options...)
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := opts.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	entries := make([]Entry, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if err := s.checkDimension(vectors[i]); err != nil {
			return nil, err
		}
		ids[i] = documentID(doc)
		entries[i] = Entry{
			ID:       ids[i],
			Values:   vectors[i],
			Content:  doc.PageContent,
			Metadata: doc.Metadata,
		}
	}

	for start := 0; start < len(entries); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(entries))
		if err := s.index.Upsert(ctx, entries[start:end]); err != nil {
			return nil, fmt.Errorf("failed to upsert into %s: %w", s.name, err)
		}
	}
	return ids, nil
}

// SimilaritySearch returns the numDocuments nearest chunks to query, best first.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := s.getOptions(options...)

	vector, err := opts.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	matches, err := s.index.Query(ctx, vector, numDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.name, err)
	}

	docs := make([]schema.Document, 0, len(matches))
	for _, match := range matches {
		if opts.ScoreThreshold > 0 && match.Score < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: match.Content,
			Metadata:    match.Metadata,
			Score:       match.Score,
		})
	}
	return docs, nil
}

func (s *Store) getOptions(options ...vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Embedder == nil {
		opts.Embedder = s.embedder
	}
	return opts
}

func (s *Store) checkDimension(vector []float32) error {
	if s.dimension != 0 && len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, index %s expects %d", ErrDimensionMismatch, len(vector), s.name, s.dimension)
	}
	return nil
}

func documentID(doc schema.Document) string {
	source, _ := doc.Metadata[models.MetaSource].(string)
	if source == "" {
		return helper.DeterministicUUID(doc.PageContent)
	}
	return helper.DeterministicUUID(
		source,
		fmt.Sprint(doc.Metadata[models.MetaPageLabel]),
		fmt.Sprint(doc.Metadata[models.MetaChunkID]),
	)
}
