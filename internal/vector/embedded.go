package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// EmbeddedStore is an in-memory vector store implementation.
// It uses brute-force search with cosine similarity, suitable for curated
// guideline indexes up to tens of thousands of passages. Ties are broken by
// insertion order so search results are fully deterministic.
type EmbeddedStore struct {
	mu      sync.RWMutex
	records map[string]Record
	dims    int
	nextSeq int
}

// NewEmbeddedStore creates a new in-memory vector store.
// dims specifies the expected dimensionality of embedding vectors.
func NewEmbeddedStore(dims int) *EmbeddedStore {
	return &EmbeddedStore{
		records: make(map[string]Record),
		dims:    dims,
	}
}

// Store adds a single vector record to the store.
func (s *EmbeddedStore) Store(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if len(record.Embedding) != s.dims {
		return types.NewError(ErrCodeVectorStoreFailed,
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", s.dims, len(record.Embedding)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.seq = s.nextSeq
	s.nextSeq++
	s.records[record.ID] = record
	return nil
}

// StoreBatch adds multiple vector records to the store efficiently.
func (s *EmbeddedStore) StoreBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	// Validate all records before storing any
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return types.WrapError(ErrCodeVectorStoreFailed,
				fmt.Sprintf("invalid record at index %d", i), err)
		}
		if len(record.Embedding) != s.dims {
			return types.NewError(ErrCodeVectorStoreFailed,
				fmt.Sprintf("record %d: embedding dimensions mismatch: expected %d, got %d",
					i, s.dims, len(record.Embedding)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		record.seq = s.nextSeq
		s.nextSeq++
		s.records[record.ID] = record
	}

	return nil
}

// Search finds similar records by embedding vector using brute-force search.
// Uses cosine similarity for scoring and returns results sorted by descending
// score; equal scores fall back to insertion order.
func (s *EmbeddedStore) Search(ctx context.Context, query Query) ([]Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if len(query.Embedding) != s.dims {
		return nil, types.NewError(ErrCodeVectorSearchFailed,
			fmt.Sprintf("query embedding dimensions mismatch: expected %d, got %d",
				s.dims, len(query.Embedding)))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.records))

	for _, record := range s.records {
		if !matchesFilters(record, query.Filters) {
			continue
		}

		score := cosineSimilarity(query.Embedding, record.Embedding)

		if score >= query.MinScore {
			results = append(results, Result{Record: record, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.seq < results[j].Record.seq
	})

	if len(results) > query.TopK {
		results = results[:query.TopK]
	}

	return results, nil
}

// Get retrieves a specific record by ID.
func (s *EmbeddedStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, types.NewError(ErrCodeVectorNotFound,
			fmt.Sprintf("vector record not found: %s", id))
	}

	return &record, nil
}

// Count returns the number of records in the store.
func (s *EmbeddedStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Health returns the current health status of the vector store.
// An empty index is reported as degraded since retrieval will find nothing.
func (s *EmbeddedStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	count := len(s.records)
	s.mu.RUnlock()

	if count == 0 {
		return types.Degraded("embedded vector store is empty")
	}

	return types.Healthy(
		fmt.Sprintf("embedded vector store operational with %d records (dims: %d)", count, s.dims))
}

// Close releases all resources held by the vector store.
func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// cosineSimilarity computes the cosine similarity between two embedding vectors.
//
// Formula: similarity = (a · b) / (||a|| * ||b||)
// where · is dot product and ||x|| is the L2 norm (Euclidean length).
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// matchesFilters checks if a vector record matches the specified metadata filters.
// All filters must match for the function to return true (AND semantics).
func matchesFilters(record Record, filters map[string]any) bool {
	if len(filters) == 0 {
		return true
	}

	if record.Metadata == nil {
		return false
	}

	for key, expectedValue := range filters {
		actualValue, exists := record.Metadata[key]
		if !exists {
			return false
		}

		if actualValue != expectedValue {
			return false
		}
	}

	return true
}
