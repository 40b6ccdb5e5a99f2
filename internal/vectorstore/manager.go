package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"

	"icyco-rag/internal/models"
)

const (
	defaultPollInterval = time.Second
	defaultReadyTimeout = 5 * time.Minute
)

// ChunkSource turns a resource file name into chunks.
type ChunkSource interface {
	Chunks(filename string) ([]models.Chunk, error)
}

// Manager hands out ready-to-query stores, creating and filling the index
// the first time a name is seen.
type Manager struct {
	provider     Provider
	embedder     embeddings.Embedder
	source       ChunkSource
	spec         IndexSpec
	pollInterval time.Duration
	readyTimeout time.Duration
}

type Option func(*Manager)

func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithReadyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.readyTimeout = d
		}
	}
}

func NewManager(provider Provider, embedder embeddings.Embedder, source ChunkSource, spec IndexSpec, opts ...Option) *Manager {
	m := &Manager{
		provider:     provider,
		embedder:     embedder,
		source:       source,
		spec:         spec,
		pollInterval: defaultPollInterval,
		readyTimeout: defaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetVectorStore returns a store for the named index. A missing index is
// created, awaited and filled with the chunks of files, and dropped again if
// filling fails. An existing index is used as-is and files are ignored.
func (m *Manager) GetVectorStore(ctx context.Context, name string, files []string) (*Store, error) {
	log.Info().Str("index", name).Msg("Initializing vector store...")

	exists, err := m.provider.IndexExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}

	if exists {
		status, err := m.provider.DescribeIndex(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe index %s: %w", name, err)
		}
		if status.Dimension != 0 && status.Dimension != m.spec.Dimension {
			return nil, fmt.Errorf("%w: index %s has %d dimensions, embedder produces %d",
				ErrDimensionMismatch, name, status.Dimension, m.spec.Dimension)
		}
		return m.open(ctx, name)
	}

	log.Info().Msgf("Vector store index '%s' not found. Create new...", name)
	store, err := m.createVectorStore(ctx, name)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("Successfully created vector store index '%s'. Adding %d files to new index...", name, len(files))
	if err := m.AddFiles(ctx, store, files); err != nil {
		m.discard(name)
		return nil, err
	}
	return store, nil
}

// discard removes an index whose ingestion failed so the next run does not
// take it for a populated one.
func (m *Manager) discard(name string) {
	dropper, ok := m.provider.(Dropper)
	if !ok {
		log.Warn().Str("index", name).Msg("Index left partially filled, run with -rebuild to ingest again")
		return
	}
	// ctx may be the reason ingestion failed
	ctx, cancel := context.WithTimeout(context.Background(), m.readyTimeout)
	defer cancel()
	if err := dropper.DropIndex(ctx, name); err != nil {
		log.Warn().Err(err).Str("index", name).Msg("Failed to drop partially filled index, run with -rebuild")
		return
	}
	log.Info().Str("index", name).Msg("Dropped index after failed ingestion")
}

func (m *Manager) createVectorStore(ctx context.Context, name string) (*Store, error) {
	spec := m.spec
	spec.Name = name
	if err := m.provider.CreateIndex(ctx, spec); err != nil {
		return nil, fmt.Errorf("failed to create index %s: %w", name, err)
	}
	if err := m.waitReady(ctx, name); err != nil {
		return nil, err
	}
	return m.open(ctx, name)
}

// waitReady polls the provider until the index reports ready, the ready
// timeout passes or ctx is done.
func (m *Manager) waitReady(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, m.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		status, err := m.provider.DescribeIndex(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to describe index %s: %w", name, err)
		}
		if status.Ready {
			return nil
		}
		log.Debug().Str("index", name).Msg("Waiting for index to be ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrIndexNotReady, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Drop deletes the named index so the next GetVectorStore rebuilds it.
// A missing index is not an error.
func (m *Manager) Drop(ctx context.Context, name string) error {
	dropper, ok := m.provider.(Dropper)
	if !ok {
		return fmt.Errorf("provider %T cannot drop indexes", m.provider)
	}
	exists, err := m.provider.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	if !exists {
		return nil
	}
	log.Info().Str("index", name).Msg("Dropping vector store index")
	if err := dropper.DropIndex(ctx, name); err != nil {
		return fmt.Errorf("failed to drop index %s: %w", name, err)
	}
	return nil
}

func (m *Manager) open(ctx context.Context, name string) (*Store, error) {
	index, err := m.provider.OpenIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", name, err)
	}
	return NewStore(name, index, m.embedder, m.spec.Dimension), nil
}

// AddFiles chunks every file and upserts the chunks into store.
func (m *Manager) AddFiles(ctx context.Context, store *Store, files []string) error {
	var docs []schema.Document
	for _, file := range files {
		chunks, err := m.source.Chunks(file)
		if err != nil {
			return fmt.Errorf("failed to create chunks for %s: %w", file, err)
		}
		docs = append(docs, ChunksToDocuments(chunks)...)
	}
	if len(docs) == 0 {
		log.Warn().Msg("No chunks generated from the supplied files")
		return nil
	}

	log.Info().Msgf("Adding %d chunks to vector store", len(docs))
	if _, err := store.AddDocuments(ctx, docs); err != nil {
		return err
	}
	return nil
}

func ChunksToDocuments(chunks []models.Chunk) []schema.Document {
	docs := make([]schema.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = schema.Document{PageContent: c.Content, Metadata: c.Metadata()}
	}
	return docs
}
