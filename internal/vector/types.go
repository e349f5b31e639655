package vector

import (
	"fmt"
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Record represents a stored vector with metadata.
// Guideline passages are stored as Records with source and locator metadata.
type Record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	// seq preserves insertion order for stable tie-breaking in search results.
	seq int
}

// NewRecord creates a new Record with the current timestamp.
func NewRecord(id, content string, embedding []float64, metadata map[string]any) *Record {
	return &Record{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Validate ensures the Record has valid fields.
// Returns an RxError if validation fails.
func (r *Record) Validate() error {
	if r.ID == "" {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record ID cannot be empty")
	}
	if r.Content == "" {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record content cannot be empty")
	}
	if len(r.Embedding) == 0 {
		return types.NewError(ErrCodeVectorStoreFailed, "vector record embedding cannot be empty")
	}
	return nil
}

// Dimensions returns the dimensionality of the embedding vector.
func (r *Record) Dimensions() int {
	return len(r.Embedding)
}

// Query represents a vector search query using a pre-computed embedding.
type Query struct {
	Embedding []float64      `json:"embedding"`
	TopK      int            `json:"top_k"`
	Filters   map[string]any `json:"filters,omitempty"`
	MinScore  float64        `json:"min_score,omitempty"`
}

// NewQuery creates a new Query from a pre-computed embedding.
func NewQuery(embedding []float64, topK int) *Query {
	return &Query{
		Embedding: embedding,
		TopK:      topK,
		MinScore:  0.0,
	}
}

// WithFilters adds metadata filters to the query.
func (q *Query) WithFilters(filters map[string]any) *Query {
	q.Filters = filters
	return q
}

// WithMinScore sets the minimum similarity score threshold.
func (q *Query) WithMinScore(minScore float64) *Query {
	q.MinScore = minScore
	return q
}

// Validate ensures the Query has valid fields.
func (q *Query) Validate() error {
	if len(q.Embedding) == 0 {
		return types.NewError(ErrCodeVectorSearchFailed, "vector query must have an embedding")
	}
	if q.TopK <= 0 {
		return types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("vector query top_k must be greater than 0, got %d", q.TopK))
	}
	if q.MinScore < 0 || q.MinScore > 1 {
		return types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("vector query min_score must be between 0 and 1, got %f", q.MinScore))
	}
	return nil
}

// Result represents a vector search result with similarity score.
type Result struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"` // Cosine similarity (0-1, higher is better)
}
