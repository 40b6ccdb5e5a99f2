package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"icyco-rag/internal/models"
	"icyco-rag/internal/vectorstore"
)

const (
	metaDimension = "dimension"

	// chromem only loads subdirectories, so the file sits beside the collections
	dimensionsFile = "dimensions.yaml"
)

// VectorDBManager keeps one chromem-go collection per index name.
type VectorDBManager struct {
	db            *chromem.DB
	compress      bool
	encryptionKey string

	mu         sync.Mutex
	dimensions map[string]int
	// empty for in-memory databases
	dimensionsPath string
}

var (
	_ vectorstore.Provider = (*VectorDBManager)(nil)
	_ vectorstore.Dropper  = (*VectorDBManager)(nil)
)

// NewVectorDBManager opens a persistent database under dbPath, or an
// in-memory one.
func NewVectorDBManager(dbPath string, inMemory, compress bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	if inMemory {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:            db,
		compress:      compress,
		encryptionKey: encryptionKey,
		dimensions:    map[string]int{},
	}
	if !inMemory {
		m.dimensionsPath = filepath.Join(dbPath, dimensionsFile)
		if err := m.loadDimensions(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *VectorDBManager) loadDimensions() error {
	data, err := os.ReadFile(m.dimensionsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", m.dimensionsPath, err)
	}
	if err := yaml.Unmarshal(data, &m.dimensions); err != nil {
		return fmt.Errorf("failed to parse %s: %w", m.dimensionsPath, err)
	}
	if m.dimensions == nil {
		m.dimensions = map[string]int{}
	}
	// drop entries whose collection was removed behind our back
	for name := range m.dimensions {
		if m.db.GetCollection(name, nil) == nil {
			delete(m.dimensions, name)
		}
	}
	return nil
}

// saveDimensions must be called with mu held.
func (m *VectorDBManager) saveDimensions() error {
	if m.dimensionsPath == "" {
		return nil
	}
	data, err := yaml.Marshal(m.dimensions)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.dimensionsPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.dimensionsPath, err)
	}
	return nil
}

func (m *VectorDBManager) IndexExists(ctx context.Context, name string) (bool, error) {
	return m.db.GetCollection(name, nil) != nil, nil
}

func (m *VectorDBManager) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	metadata := map[string]string{metaDimension: strconv.Itoa(spec.Dimension)}
	if _, err := m.db.CreateCollection(spec.Name, metadata, nil); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions[spec.Name] = spec.Dimension
	return m.saveDimensions()
}

// DescribeIndex reports collections as always ready. The dimension is zero
// for collections this manager never created, such as imported ones.
func (m *VectorDBManager) DescribeIndex(ctx context.Context, name string) (vectorstore.IndexStatus, error) {
	if m.db.GetCollection(name, nil) == nil {
		return vectorstore.IndexStatus{}, fmt.Errorf("collection %s not found", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return vectorstore.IndexStatus{Ready: true, Dimension: m.dimensions[name]}, nil
}

func (m *VectorDBManager) OpenIndex(ctx context.Context, name string) (vectorstore.Index, error) {
	c := m.db.GetCollection(name, nil)
	if c == nil {
		return nil, fmt.Errorf("collection %s not found", name)
	}
	return &collection{c: c}, nil
}

func (m *VectorDBManager) DropIndex(ctx context.Context, name string) error {
	if err := m.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dimensions, name)
	return m.saveDimensions()
}

// Export writes the named collection to filePath, encrypted when the manager
// has a key.
func (m *VectorDBManager) Export(filePath, name string) error {
	if filePath == "" {
		return errors.New("export path is required")
	}
	if m.db.GetCollection(name, nil) == nil {
		return fmt.Errorf("collection %s not found", name)
	}

	log.Debug().Str("collection", name).Str("file", filePath).Bool("compress", m.compress).Msg("Exporting collection")
	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads a file written by Export. A missing file is ignored.
func (m *VectorDBManager) Import(filePath, name string) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := m.db.ImportFromFile(filePath, m.encryptionKey, name); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

type collection struct {
	c *chromem.Collection
}

func (c *collection) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Content,
			Metadata:  toStringMap(e.Metadata),
			Embedding: e.Values,
		}
	}
	if err := c.c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (c *collection) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	// chromem refuses nResults above the document count
	topK = min(topK, c.c.Count())
	if topK <= 0 {
		return nil, nil
	}

	results, err := c.c.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]vectorstore.Match, len(results))
	for i, r := range results {
		matches[i] = vectorstore.Match{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: fromStringMap(r.Metadata),
			Score:    r.Similarity,
		}
	}
	return matches, nil
}

func toStringMap(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// chunk ids come back as ints, everything else stays a string
func fromStringMap(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
		if k == models.MetaChunkID {
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
			}
		}
	}
	return out
}
