package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/smithers-ai/smithers/internal/log"
)

const (
	defaultChunkSize    = 1200 // characters per chunk
	defaultChunkOverlap = 200
)

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Skipped int `json:"skipped"`
}

// Indexer walks a documentation directory and loads it into the Store.
type Indexer struct {
	store  *Store
	logger log.Logger

	chunkSize    int
	chunkOverlap int
}

// NewIndexer creates an Indexer with default chunking.
func NewIndexer(store *Store, logger log.Logger) (*Indexer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Indexer{
		store:        store,
		logger:       logger,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}, nil
}

// IndexDir indexes every markdown and text file under dir. Files that
// cannot be read are skipped and counted, not fatal. Chunk IDs derive
// from the relative path and chunk content, so unchanged chunks upsert
// onto themselves and re-runs are idempotent.
func (ix *Indexer) IndexDir(ctx context.Context, dir string) (IndexResult, error) {
	var result IndexResult

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !indexableFile(path) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		chunks, err := ix.indexFile(ctx, path, rel)
		if err != nil {
			ix.logger.Warn("skipping file", "path", rel, "error", err)
			result.Skipped++
			return nil
		}

		result.Files++
		result.Chunks += chunks
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", dir, err)
	}

	ix.logger.Info("indexing complete",
		"dir", dir,
		"files", result.Files,
		"chunks", result.Chunks,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path, rel string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, errors.New("file is empty")
	}

	title := titleOf(content, rel)
	chunks := chunkText(content, ix.chunkSize, ix.chunkOverlap)

	for i, chunk := range chunks {
		doc := Document{
			ID:      chunkID(rel, chunk),
			Title:   title,
			Content: chunk,
			Source:  rel,
			Metadata: map[string]string{
				"chunk": fmt.Sprintf("%d/%d", i+1, len(chunks)),
			},
		}
		if err := ix.store.Add(ctx, doc); err != nil {
			return 0, err
		}
	}
	return len(chunks), nil
}

func indexableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// titleOf extracts the first markdown heading, falling back to the file name.
func titleOf(content, rel string) string {
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "#"); ok {
			return strings.TrimSpace(strings.TrimLeft(after, "#"))
		}
		if line != "" {
			break
		}
	}
	return strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
}

func chunkID(source, chunk string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + chunk))
	return hex.EncodeToString(sum[:16])
}

// chunkText splits content into overlapping chunks of roughly size
// characters, breaking on whitespace so words stay whole.
func chunkText(content string, size, overlap int) []string {
	if len(content) <= size {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := start + size
		if end >= len(content) {
			chunks = append(chunks, strings.TrimSpace(content[start:]))
			break
		}

		// Back up to the last whitespace so we do not split a word.
		cut := end
		for cut > start && !isSpace(content[cut]) {
			cut--
		}
		if cut == start {
			cut = end
		}

		chunk := strings.TrimSpace(content[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
