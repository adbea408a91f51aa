package tools

import (
	"context"
	"fmt"

	"github.com/smithers-ai/smithers/internal/knowledge"
)

// SearchKnowledgeName is the registered name of the knowledge search tool.
const SearchKnowledgeName = "search_knowledge_base"

// DefaultTopK is the result count used when neither the model nor the
// configuration asks for one.
const DefaultTopK = 5

const maxTopK = 10

// Searcher is the knowledge store capability the search tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Snippet, error)
}

// SearchInput is the model-facing argument schema for knowledge search.
type SearchInput struct {
	// Query is the natural-language search query.
	Query string `json:"query"`
	// TopK is the maximum number of snippets to return (1-10, default 5).
	TopK int `json:"topK,omitempty"`
}

// SearchOutput carries ranked snippets back to the model. Note is set
// instead of Results when nothing relevant was found, so the model has
// something concrete to say.
type SearchOutput struct {
	Query   string              `json:"query"`
	Results []knowledge.Snippet `json:"results,omitempty"`
	Note    string              `json:"note,omitempty"`
}

// NewSearchKnowledge builds the semantic search tool over the knowledge
// store. defaultTopK is used when the model omits topK; zero falls back
// to DefaultTopK.
func NewSearchKnowledge(searcher Searcher, defaultTopK int) (*ExecutableTool, error) {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if defaultTopK > maxTopK {
		defaultTopK = maxTopK
	}
	return NewTool(
		SearchKnowledgeName,
		"Search the knowledge base for information relevant to the user's question. "+
			"Use this for questions about surfing technique, equipment, conditions, and local knowledge.",
		func(ctx context.Context, input SearchInput) (SearchOutput, error) {
			if input.Query == "" {
				return SearchOutput{}, fmt.Errorf("query is required")
			}

			topK := input.TopK
			if topK <= 0 {
				topK = defaultTopK // clamped constructor default
			}
			if topK > maxTopK {
				topK = maxTopK
			}

			snippets, err := searcher.Search(ctx, input.Query, topK)
			if err != nil {
				return SearchOutput{}, fmt.Errorf("search knowledge base: %w", err)
			}

			out := SearchOutput{Query: input.Query, Results: snippets}
			if len(snippets) == 0 {
				out.Note = "no relevant information found in the knowledge base"
			}
			return out, nil
		},
	)
}
