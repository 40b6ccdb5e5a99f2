package chromemdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"icyco-rag/internal/embedding"
	"icyco-rag/internal/vectorstore"
)

func newMemoryManager(t *testing.T) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager("", true, false, "")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func seed(t *testing.T, m *VectorDBManager) vectorstore.Index {
	t.Helper()
	ctx := context.Background()
	if err := m.CreateIndex(ctx, vectorstore.IndexSpec{Name: "icyco", Dimension: 384}); err != nil {
		t.Fatal(err)
	}
	idx, err := m.OpenIndex(ctx, "icyco")
	if err != nil {
		t.Fatal(err)
	}

	h := embedding.NewHashingEmbedder(384)
	texts := []string{
		"Icyco offers vanilla, chocolate, and strawberry flavors.",
		"Waffle cones are baked fresh every morning.",
	}
	vecs, _ := h.EmbedDocuments(ctx, texts)
	err = idx.Upsert(ctx, []vectorstore.Entry{
		{ID: "a", Values: vecs[0], Content: texts[0], Metadata: map[string]any{"title": "Icyco", "page_label": "1", "chunk_id": 1}},
		{ID: "b", Values: vecs[1], Content: texts[1], Metadata: map[string]any{"title": "Icyco", "page_label": "2", "chunk_id": 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestProviderLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)

	exists, err := m.IndexExists(ctx, "icyco")
	if err != nil || exists {
		t.Fatalf("exists = %v, err = %v before creation", exists, err)
	}
	if _, err := m.DescribeIndex(ctx, "icyco"); err == nil {
		t.Error("expected describe error for a missing collection")
	}

	idx := seed(t, m)

	exists, _ = m.IndexExists(ctx, "icyco")
	if !exists {
		t.Fatal("collection missing after creation")
	}
	status, err := m.DescribeIndex(ctx, "icyco")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Ready || status.Dimension != 384 {
		t.Errorf("status = %+v", status)
	}

	q, _ := embedding.NewHashingEmbedder(384).EmbedQuery(ctx, "vanilla flavors")
	// more than stored, must be clamped
	matches, err := idx.Query(ctx, q, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches", len(matches))
	}
	if matches[0].ID != "a" {
		t.Errorf("best match = %s", matches[0].ID)
	}
	if matches[0].Metadata["chunk_id"] != 1 || matches[0].Metadata["page_label"] != "1" {
		t.Errorf("metadata = %v", matches[0].Metadata)
	}

	if err := m.DropIndex(ctx, "icyco"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := m.IndexExists(ctx, "icyco"); exists {
		t.Error("collection still present after delete")
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	if err := m.CreateIndex(ctx, vectorstore.IndexSpec{Name: "empty", Dimension: 8}); err != nil {
		t.Fatal(err)
	}
	idx, _ := m.OpenIndex(ctx, "empty")
	matches, err := idx.Query(ctx, make([]float32, 8), 3)
	if err != nil || len(matches) != 0 {
		t.Errorf("matches = %v, err = %v", matches, err)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "icyco.gob")

	src := newMemoryManager(t)
	seed(t, src)
	if err := src.Export(file, "icyco"); err != nil {
		t.Fatal(err)
	}

	dst := newMemoryManager(t)
	if err := dst.Import(filepath.Join(t.TempDir(), "missing.gob"), "icyco"); err != nil {
		t.Errorf("missing import file should be ignored: %v", err)
	}
	if err := dst.Import(file, "icyco"); err != nil {
		t.Fatal(err)
	}
	exists, _ := dst.IndexExists(ctx, "icyco")
	if !exists {
		t.Fatal("collection missing after import")
	}
	idx, _ := dst.OpenIndex(ctx, "icyco")
	q, _ := embedding.NewHashingEmbedder(384).EmbedQuery(ctx, "waffle cones")
	matches, err := idx.Query(ctx, q, 1)
	if err != nil || len(matches) != 1 || matches[0].ID != "b" {
		t.Errorf("matches = %v, err = %v", matches, err)
	}
}

func TestPersistentDimensionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "chromemdb")

	first, err := NewVectorDBManager(dir, false, false, "")
	if err != nil {
		t.Fatal(err)
	}
	seed(t, first)

	reopened, err := NewVectorDBManager(dir, false, false, "")
	if err != nil {
		t.Fatal(err)
	}
	status, err := reopened.DescribeIndex(ctx, "icyco")
	if err != nil {
		t.Fatal(err)
	}
	if status.Dimension != 384 {
		t.Errorf("dimension after reopen = %d, want 384", status.Dimension)
	}

	// an embedder of another width must be refused
	m := vectorstore.NewManager(reopened, embedding.NewHashingEmbedder(768), nil,
		vectorstore.IndexSpec{Dimension: 768})
	if _, err := m.GetVectorStore(ctx, "icyco", nil); !errors.Is(err, vectorstore.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}

	if err := reopened.DropIndex(ctx, "icyco"); err != nil {
		t.Fatal(err)
	}
	again, err := NewVectorDBManager(dir, false, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if exists, _ := again.IndexExists(ctx, "icyco"); exists {
		t.Error("dropped collection came back")
	}
	if status, err := again.DescribeIndex(ctx, "missing"); err == nil {
		t.Errorf("status = %+v for a missing collection", status)
	}
}
