package knowledge

import "time"

// Document is one stored knowledge chunk.
type Document struct {
	ID        string            // Unique identifier, derived from source and content
	Title     string            // Human-readable title, usually the source heading
	Content   string            // Chunk text
	Source    string            // Origin, e.g. relative file path
	Metadata  map[string]string // Optional metadata
	CreatedAt time.Time
}

// Snippet is one search hit as returned to the model.
type Snippet struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score"` // Cosine similarity, higher is closer
}
