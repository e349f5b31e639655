package embedder

import (
	"context"
	"sync"
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// MockCall represents a recorded method call on the mock embedder.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// MockEmbedder is a mock implementation of Embedder for testing.
// It delegates vector generation to a HashEmbedder, so the same text always
// produces the same embedding, and supports error injection.
type MockEmbedder struct {
	mu           sync.RWMutex
	inner        *HashEmbedder
	calls        []MockCall
	embedError   error
	batchError   error
	healthStatus types.HealthStatus
}

// NewMockEmbedder creates a new mock embedder for testing.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		inner:        NewHashEmbedder(384),
		calls:        make([]MockCall, 0),
		healthStatus: types.Healthy("mock embedder"),
	}
}

// Embed generates a deterministic embedding for a single text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		Method:    "Embed",
		Args:      []interface{}{text},
		Timestamp: time.Now(),
	})
	err := m.embedError
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return m.inner.Embed(ctx, text)
}

// EmbedBatch generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		Method:    "EmbedBatch",
		Args:      []interface{}{texts},
		Timestamp: time.Now(),
	})
	err := m.batchError
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return m.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the dimensionality of the embedding vectors.
func (m *MockEmbedder) Dimensions() int {
	return m.inner.Dimensions()
}

// Model returns the name of the mock embedding model.
func (m *MockEmbedder) Model() string {
	return "mock-embedder"
}

// Health returns the configured health status.
func (m *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthStatus
}

// SetEmbedError configures Embed() to return an error.
func (m *MockEmbedder) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedError = err
}

// SetBatchError configures EmbedBatch() to return an error.
func (m *MockEmbedder) SetBatchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchError = err
}

// SetHealthStatus configures what Health() should return.
func (m *MockEmbedder) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// GetCalls returns all recorded method calls.
func (m *MockEmbedder) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the total number of method calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}
