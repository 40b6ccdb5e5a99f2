package pinecone

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"icyco-rag/internal/models"
	"icyco-rag/internal/vectorstore"
)

// metadata key holding the chunk text, as langchain stores it
const textKey = "text"

// Provider manages serverless Pinecone indexes.
type Provider struct {
	client    *pinecone.Client
	namespace string
}

var (
	_ vectorstore.Provider = (*Provider)(nil)
	_ vectorstore.Dropper  = (*Provider)(nil)
)

func New(apiKey, namespace string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("pinecone api key is not set, export PINECONE_API_KEY")
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}
	return &Provider{client: client, namespace: namespace}, nil
}

func (p *Provider) IndexExists(ctx context.Context, name string) (bool, error) {
	indexes, err := p.client.ListIndexes(ctx)
	if err != nil {
		return false, err
	}
	for _, idx := range indexes {
		if idx.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (p *Provider) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	if spec.Dimension <= 0 || spec.Dimension > math.MaxInt32 {
		return fmt.Errorf("invalid dimension %d", spec.Dimension)
	}
	_, err := p.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      spec.Name,
		Dimension: int32(spec.Dimension),
		Metric:    pinecone.IndexMetric(spec.Metric),
		Cloud:     pinecone.Cloud(spec.Cloud),
		Region:    spec.Region,
	})
	return err
}

func (p *Provider) DescribeIndex(ctx context.Context, name string) (vectorstore.IndexStatus, error) {
	idx, err := p.client.DescribeIndex(ctx, name)
	if err != nil {
		return vectorstore.IndexStatus{}, err
	}
	status := vectorstore.IndexStatus{Dimension: int(idx.Dimension)}
	if idx.Status != nil {
		status.Ready = idx.Status.Ready
	}
	return status, nil
}

func (p *Provider) OpenIndex(ctx context.Context, name string) (vectorstore.Index, error) {
	idx, err := p.client.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	conn, err := p.client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: p.namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index host %s: %w", idx.Host, err)
	}
	log.Debug().Str("index", name).Str("host", idx.Host).Msg("Connected to pinecone index")
	return &Index{conn: conn}, nil
}

func (p *Provider) DropIndex(ctx context.Context, name string) error {
	return p.client.DeleteIndex(ctx, name)
}

// Index wraps a data-plane connection to one index.
type Index struct {
	conn *pinecone.IndexConnection
}

func (i *Index) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	vectors := make([]*pinecone.Vector, len(entries))
	for n, e := range entries {
		meta, err := toMetadata(e.Content, e.Metadata)
		if err != nil {
			return fmt.Errorf("invalid metadata for %s: %w", e.ID, err)
		}
		vectors[n] = &pinecone.Vector{Id: e.ID, Values: e.Values, Metadata: meta}
	}
	if _, err := i.conn.UpsertVectors(ctx, vectors); err != nil {
		return err
	}
	return nil
}

func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	resp, err := i.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		content, meta := fromMetadata(m.Vector.Metadata)
		matches = append(matches, vectorstore.Match{
			ID:       m.Vector.Id,
			Content:  content,
			Metadata: meta,
			Score:    m.Score,
		})
	}
	return matches, nil
}

func (i *Index) Close() error {
	return i.conn.Close()
}

// toMetadata stores the chunk text next to the chunk metadata.
func toMetadata(content string, meta map[string]any) (*pinecone.Metadata, error) {
	fields := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		if n, ok := v.(int); ok {
			v = float64(n)
		}
		fields[k] = v
	}
	fields[textKey] = content
	return structpb.NewStruct(fields)
}

func fromMetadata(meta *pinecone.Metadata) (string, map[string]any) {
	if meta == nil {
		return "", map[string]any{}
	}
	fields := meta.AsMap()
	content, _ := fields[textKey].(string)
	delete(fields, textKey)
	// numbers come back as float64
	if f, ok := fields[models.MetaChunkID].(float64); ok {
		fields[models.MetaChunkID] = int(f)
	}
	return content, fields
}
