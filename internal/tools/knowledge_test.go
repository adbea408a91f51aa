package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithers-ai/smithers/internal/knowledge"
)

type fakeSearcher struct {
	snippets []knowledge.Snippet
	err      error

	gotQuery string
	gotTopK  int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int) ([]knowledge.Snippet, error) {
	f.gotQuery = query
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

func searchWith(t *testing.T, searcher *fakeSearcher, input string) (SearchOutput, error) {
	t.Helper()
	tool, err := NewSearchKnowledge(searcher, 0)
	require.NoError(t, err)

	out, execErr := tool.Execute(context.Background(), json.RawMessage(input))
	if execErr != nil {
		return SearchOutput{}, execErr
	}
	result, ok := out.(SearchOutput)
	require.True(t, ok)
	return result, nil
}

func TestSearchKnowledge_Hits(t *testing.T) {
	searcher := &fakeSearcher{snippets: []knowledge.Snippet{
		{Text: "Bend your knees on the drop.", Source: "takeoff.md", Score: 0.91},
	}}

	out, err := searchWith(t, searcher, `{"query":"how to take off"}`)
	require.NoError(t, err)

	assert.Equal(t, "how to take off", searcher.gotQuery)
	assert.Equal(t, DefaultTopK, searcher.gotTopK)
	require.Len(t, out.Results, 1)
	assert.Empty(t, out.Note)
}

func TestSearchKnowledge_NoHits(t *testing.T) {
	out, err := searchWith(t, &fakeSearcher{}, `{"query":"quantum surfing"}`)
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	assert.Contains(t, out.Note, "no relevant information")
}

func TestSearchKnowledge_TopKClamping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "default", input: `{"query":"q"}`, want: DefaultTopK},
		{name: "explicit", input: `{"query":"q","topK":3}`, want: 3},
		{name: "clamped high", input: `{"query":"q","topK":50}`, want: maxTopK},
		{name: "negative uses default", input: `{"query":"q","topK":-2}`, want: DefaultTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			_, err := searchWith(t, searcher, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, searcher.gotTopK)
		})
	}
}

func TestSearchKnowledge_MissingQuery(t *testing.T) {
	_, err := searchWith(t, &fakeSearcher{}, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestSearchKnowledge_SearcherFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("database down")}
	_, err := searchWith(t, searcher, `{"query":"q"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database down")
}

func TestSearchKnowledge_Schema(t *testing.T) {
	tool, err := NewSearchKnowledge(&fakeSearcher{}, 0)
	require.NoError(t, err)

	assert.Equal(t, SearchKnowledgeName, tool.Name())
	schema := tool.InputSchema()
	require.NotNil(t, schema)
	assert.Contains(t, schema.Properties, "query")
	assert.Contains(t, schema.Properties, "topK")
}

func TestSearchKnowledge_ConfiguredDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	tool, err := NewSearchKnowledge(searcher, 3)
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"query":"q"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.gotTopK)
}
