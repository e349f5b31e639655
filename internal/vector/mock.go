package vector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// MockCall represents a recorded method call on the mock vector store.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// MockStore is a mock implementation of Store for testing.
// It provides configurable responses and tracks all method calls for verification.
type MockStore struct {
	mu            sync.RWMutex
	records       map[string]Record
	searchResults []Result
	healthStatus  types.HealthStatus
	calls         []MockCall
	storeError    error
	searchError   error
	getError      error
}

// NewMockStore creates a new mock vector store for testing.
func NewMockStore() *MockStore {
	return &MockStore{
		records:       make(map[string]Record),
		searchResults: make([]Result, 0),
		calls:         make([]MockCall, 0),
		healthStatus:  types.Healthy("mock vector store"),
	}
}

// Store records the call and stores the record if no error is configured.
func (m *MockStore) Store(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Store",
		Args:      []interface{}{record},
		Timestamp: time.Now(),
	})

	if m.storeError != nil {
		return m.storeError
	}

	m.records[record.ID] = record
	return nil
}

// StoreBatch records the call and stores the records if no error is configured.
func (m *MockStore) StoreBatch(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "StoreBatch",
		Args:      []interface{}{records},
		Timestamp: time.Now(),
	})

	if m.storeError != nil {
		return m.storeError
	}

	for _, record := range records {
		m.records[record.ID] = record
	}
	return nil
}

// Search records the call and returns the configured search results.
func (m *MockStore) Search(ctx context.Context, query Query) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Search",
		Args:      []interface{}{query},
		Timestamp: time.Now(),
	})

	if m.searchError != nil {
		return nil, m.searchError
	}

	results := make([]Result, len(m.searchResults))
	copy(results, m.searchResults)
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	return results, nil
}

// Get records the call and returns the record if found.
func (m *MockStore) Get(ctx context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Get",
		Args:      []interface{}{id},
		Timestamp: time.Now(),
	})

	if m.getError != nil {
		return nil, m.getError
	}

	record, exists := m.records[id]
	if !exists {
		return nil, types.NewError(ErrCodeVectorNotFound,
			fmt.Sprintf("vector record not found: %s", id))
	}

	return &record, nil
}

// Count returns the number of stored records.
func (m *MockStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Health records the call and returns the configured health status.
func (m *MockStore) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthStatus
}

// Close clears the mock state.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]Record)
	return nil
}

// SetSearchResults configures what Search() should return.
func (m *MockStore) SetSearchResults(results []Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchResults = results
}

// SetHealthStatus configures what Health() should return.
func (m *MockStore) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// SetStoreError configures Store() to return an error.
func (m *MockStore) SetStoreError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeError = err
}

// SetSearchError configures Search() to return an error.
func (m *MockStore) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchError = err
}

// SetGetError configures Get() to return an error.
func (m *MockStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// GetCalls returns all recorded method calls.
func (m *MockStore) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// GetCallsByMethod returns all calls to a specific method.
func (m *MockStore) GetCallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// CallCount returns the total number of method calls.
func (m *MockStore) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// Reset clears all recorded calls and resets the mock to its initial state.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]Record)
	m.searchResults = make([]Result, 0)
	m.calls = make([]MockCall, 0)
	m.storeError = nil
	m.searchError = nil
	m.getError = nil
	m.healthStatus = types.Healthy("mock vector store")
}
