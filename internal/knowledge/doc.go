// Package knowledge provides the vector-backed knowledge base.
//
// Documents live in PostgreSQL with pgvector embeddings generated through
// the configured Genkit embedder. Search embeds the query and ranks stored
// chunks by cosine similarity; the Indexer walks a directory of markdown
// and text files, chunks them with overlap, and upserts each chunk under a
// content-derived ID so re-indexing is idempotent.
package knowledge
