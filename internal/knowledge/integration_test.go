package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smithers-ai/smithers/db"
	"github.com/smithers-ai/smithers/internal/log"
)

// hashEmbedder produces deterministic 768-dim embeddings from text, so
// vector search behaves consistently without a model API. Identical text
// embeds identically; similar ordering is only guaranteed for exact matches.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		for _, part := range doc.Content {
			text += part.Text
		}
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, 768)
		for i := range vec {
			word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
			vec[i] = float32(word%1000)/1000 - 0.5
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}

func (hashEmbedder) Name() string { return "hashEmbedder" }

func (hashEmbedder) Register(r api.Registry) {}

func setupTestDB(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("smithers_test"),
		postgres.WithUsername("smithers_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(connStr, log.NewNop()))

	poolCfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestStore_Integration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestDB(t, ctx)

	store, err := New(NewPGQuerier(pool), hashEmbedder{}, log.NewNop())
	require.NoError(t, err)

	docs := []Document{
		{ID: "paddle-1", Title: "Paddling", Content: "Paddle with cupped hands and relaxed shoulders.", Source: "technique/paddling.md"},
		{ID: "duck-1", Title: "Duck diving", Content: "Push the nose under as the whitewater arrives.", Source: "technique/duckdive.md"},
		{ID: "bells-1", Title: "Bells Beach", Content: "Bells works best on a southwest groundswell.", Source: "spots/bells.md"},
	}
	for _, doc := range docs {
		require.NoError(t, store.Add(ctx, doc))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Exact text embeds to the same vector, so its snippet ranks first
	// with similarity 1.
	snippets, err := store.Search(ctx, "Bells works best on a southwest groundswell.", 3)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Equal(t, "spots/bells.md", snippets[0].Source)
	assert.InDelta(t, 1.0, snippets[0].Score, 0.001)

	// Upsert on the same ID replaces, not duplicates.
	docs[0].Content = "Updated paddling advice."
	require.NoError(t, store.Add(ctx, docs[0]))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.Delete(ctx, "duck-1"))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	listed, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestPGQuerier_Integration_DeleteBySource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestDB(t, ctx)
	querier := NewPGQuerier(pool)

	store, err := New(querier, hashEmbedder{}, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, Document{ID: "a1", Content: "chunk one", Source: "guide.md"}))
	require.NoError(t, store.Add(ctx, Document{ID: "a2", Content: "chunk two", Source: "guide.md"}))
	require.NoError(t, store.Add(ctx, Document{ID: "b1", Content: "other", Source: "other.md"}))

	deleted, err := querier.DeleteBySource(ctx, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
