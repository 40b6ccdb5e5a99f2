package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"icyco-rag/internal/config"
	"icyco-rag/internal/vectorstore"
)

// Document is one row of an index table.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string         `bun:"id,pk"`
	Content       string         `bun:"content,notnull"`
	Metadata      map[string]any `bun:"metadata,type:jsonb"`
	Embedding     Vector         `bun:"embedding,notnull"`
	Score         float32        `bun:"score,scanonly"`
}

// Vector encodes as a pgvector text literal.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with pgdriver, or with lib/pq when the
// driver is "postgres".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is not set, export DATABASE_URL")
	}
	if cfg.Driver == "postgres" {
		return sql.Open("postgres", cfg.DSN)
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

// Provider stores each index in its own pgvector table.
type Provider struct {
	db *bun.DB
}

var (
	_ vectorstore.Provider = (*Provider)(nil)
	_ vectorstore.Dropper  = (*Provider)(nil)
)

func NewProvider(db *bun.DB) *Provider {
	return &Provider{db: db}
}

func (p *Provider) IndexExists(ctx context.Context, name string) (bool, error) {
	return p.db.NewSelect().
		Table("information_schema.tables").
		Where("table_schema = current_schema()").
		Where("table_name = ?", name).
		Exists(ctx)
}

func (p *Provider) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	if spec.Metric != "" && spec.Metric != "cosine" {
		return fmt.Errorf("pgvector provider only supports the cosine metric, got %q", spec.Metric)
	}
	if _, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS ? (
		id text PRIMARY KEY,
		content text NOT NULL,
		metadata jsonb,
		embedding vector(?) NOT NULL
	)`, bun.Ident(spec.Name), bun.Safe(strconv.Itoa(spec.Dimension)))
	return err
}

// DescribeIndex reads the vector width back from the column type modifier.
func (p *Provider) DescribeIndex(ctx context.Context, name string) (vectorstore.IndexStatus, error) {
	var dim int
	err := p.db.NewSelect().
		ColumnExpr("a.atttypmod").
		TableExpr("pg_attribute AS a").
		Join("JOIN pg_class AS c ON c.oid = a.attrelid").
		Where("c.relname = ?", name).
		Where("a.attname = 'embedding'").
		Limit(1).
		Scan(ctx, &dim)
	if err != nil {
		return vectorstore.IndexStatus{}, err
	}
	return vectorstore.IndexStatus{Ready: true, Dimension: dim}, nil
}

func (p *Provider) OpenIndex(ctx context.Context, name string) (vectorstore.Index, error) {
	return &Index{db: p.db, table: name}, nil
}

// DropIndex removes the table backing an index.
func (p *Provider) DropIndex(ctx context.Context, name string) error {
	_, err := p.db.NewDropTable().Model((*Document)(nil)).ModelTableExpr("?", bun.Ident(name)).IfExists().Exec(ctx)
	return err
}

type Index struct {
	db    *bun.DB
	table string
}

func (i *Index) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	docs := make([]Document, len(entries))
	for n, e := range entries {
		docs[n] = Document{ID: e.ID, Content: e.Content, Metadata: e.Metadata, Embedding: Vector(e.Values)}
	}
	_, err := i.db.NewInsert().
		Model(&docs).
		ModelTableExpr("?", bun.Ident(i.table)).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("metadata = EXCLUDED.metadata").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	return err
}

// Query orders by cosine distance and reports 1 - distance as the score.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	var docs []Document
	v := Vector(vector)
	err := i.db.NewSelect().
		Model(&docs).
		ModelTableExpr("? AS d", bun.Ident(i.table)).
		Column("id", "content", "metadata").
		ColumnExpr("1 - (embedding <=> ?) AS score", v).
		OrderExpr("embedding <=> ?", v).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(docs))
	for n, d := range docs {
		matches[n] = vectorstore.Match{ID: d.ID, Content: d.Content, Metadata: d.Metadata, Score: d.Score}
	}
	return matches, nil
}
