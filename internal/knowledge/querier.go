package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// UpsertParams carries one document plus its embedding into storage.
type UpsertParams struct {
	ID        string
	Title     string
	Content   string
	Source    string
	Metadata  []byte // JSON
	Embedding pgvector.Vector
	CreatedAt time.Time
}

// SearchRow is one vector search hit.
type SearchRow struct {
	ID         string
	Title      string
	Content    string
	Source     string
	Metadata   []byte
	CreatedAt  time.Time
	Similarity float64
}

// Querier defines the database operations the Store needs. Defined
// consumer-side so tests can substitute an in-memory implementation.
type Querier interface {
	UpsertDocument(ctx context.Context, arg UpsertParams) error
	SearchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]SearchRow, error)
	CountDocuments(ctx context.Context) (int64, error)
	DeleteDocument(ctx context.Context, id string) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
	ListDocuments(ctx context.Context, limit int32) ([]Document, error)
}

// PGQuerier implements Querier over a pgx connection pool.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier wraps a pool. The pool must have pgvector types registered
// via pgxvec.RegisterTypes in its AfterConnect hook.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

const upsertDocumentSQL = `
INSERT INTO documents (id, title, content, source, metadata, embedding, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	source = EXCLUDED.source,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding`

// UpsertDocument inserts or replaces one document.
func (q *PGQuerier) UpsertDocument(ctx context.Context, arg UpsertParams) error {
	_, err := q.pool.Exec(ctx, upsertDocumentSQL,
		arg.ID, arg.Title, arg.Content, arg.Source, arg.Metadata, arg.Embedding, arg.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", arg.ID, err)
	}
	return nil
}

const searchDocumentsSQL = `
SELECT id, title, content, source, metadata, created_at,
	1 - (embedding <=> $1) AS similarity
FROM documents
ORDER BY embedding <=> $1
LIMIT $2`

// SearchDocuments returns the limit nearest documents by cosine distance.
func (q *PGQuerier) SearchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, searchDocumentsSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var row SearchRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Content, &row.Source,
			&row.Metadata, &row.CreatedAt, &row.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return out, nil
}

// CountDocuments returns the total document count.
func (q *PGQuerier) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// DeleteDocument removes one document by ID.
func (q *PGQuerier) DeleteDocument(ctx context.Context, id string) error {
	if _, err := q.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document %q: %w", id, err)
	}
	return nil
}

// DeleteBySource removes all chunks indexed from one source and returns
// how many were deleted.
func (q *PGQuerier) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("delete documents for source %q: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

const listDocumentsSQL = `
SELECT id, title, content, source, created_at
FROM documents
ORDER BY created_at DESC, id
LIMIT $1`

// ListDocuments returns documents newest first, without embeddings.
func (q *PGQuerier) ListDocuments(ctx context.Context, limit int32) ([]Document, error) {
	rows, err := q.pool.Query(ctx, listDocumentsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var doc Document
		err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.CreatedAt)
		return doc, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect documents: %w", err)
	}
	return docs, nil
}
