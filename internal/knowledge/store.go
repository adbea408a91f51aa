package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/smithers-ai/smithers/internal/log"
)

// searchTimeout bounds embedding plus vector search for one query, so a
// slow upstream cannot stall the agent loop past its own tool timeout.
const searchTimeout = 10 * time.Second

// Store manages knowledge documents with vector search. It generates
// embeddings through the configured embedder and delegates persistence to
// a Querier. Safe for concurrent use.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Store.
func New(querier Querier, embedder ai.Embedder, logger log.Logger) (*Store, error) {
	if querier == nil {
		return nil, errors.New("querier is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Store{queries: querier, embedder: embedder, logger: logger}, nil
}

// Add embeds a document's content and upserts it.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("document ID is required")
	}
	if doc.Content == "" {
		return fmt.Errorf("document %q has no content", doc.ID)
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %q: %w", doc.ID, err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if err := s.queries.UpsertDocument(ctx, UpsertParams{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Source:    doc.Source,
		Metadata:  metadataJSON,
		Embedding: embedding,
		CreatedAt: createdAt,
	}); err != nil {
		return err
	}

	s.logger.Debug("added document", "id", doc.ID, "source", doc.Source, "content_length", len(doc.Content))
	return nil
}

// Search embeds the query and returns the topK most similar snippets,
// ordered by descending similarity.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Snippet, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if topK > math.MaxInt32 {
		return nil, fmt.Errorf("topK %d out of range", topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.queries.SearchDocuments(queryCtx, embedding, int32(topK))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, err
	}

	snippets := make([]Snippet, 0, len(rows))
	for _, row := range rows {
		snippets = append(snippets, Snippet{
			Text:   row.Content,
			Source: row.Source,
			Title:  row.Title,
			Score:  row.Similarity,
		})
	}

	s.logger.Debug("knowledge search", "query_length", len(query), "top_k", topK, "hits", len(snippets))
	return snippets, nil
}

// Count returns the total number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountDocuments(ctx)
	if err != nil {
		return 0, err
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// Delete removes one document by ID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	if err := s.queries.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	s.logger.Debug("deleted document", "id", docID)
	return nil
}

// List returns stored documents newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]Document, error) {
	const maxListLimit = 1000
	if limit <= 0 || limit > maxListLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", maxListLimit, limit)
	}
	return s.queries.ListDocuments(ctx, int32(limit))
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
