package vectorstore

import (
	"context"
	"errors"
)

var (
	ErrIndexNotReady     = errors.New("vector index not ready")
	ErrDimensionMismatch = errors.New("embedding dimension does not match index")
)

// IndexSpec is the fixed schema an index is created with.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// IndexStatus is what a provider reports about an existing index. Dimension
// is zero when the provider cannot tell.
type IndexStatus struct {
	Ready     bool
	Dimension int
}

// Entry is one stored vector with its chunk text and metadata.
type Entry struct {
	ID       string
	Values   []float32
	Content  string
	Metadata map[string]any
}

type Match struct {
	ID       string
	Content  string
	Metadata map[string]any
	Score    float32
}

// Provider manages named indexes on a vector database.
type Provider interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, spec IndexSpec) error
	DescribeIndex(ctx context.Context, name string) (IndexStatus, error)
	OpenIndex(ctx context.Context, name string) (Index, error)
}

// Dropper is implemented by providers that can delete an index.
type Dropper interface {
	DropIndex(ctx context.Context, name string) error
}

// Index is a handle on one ready index.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}
