package vector

import (
	"context"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Store provides vector-based semantic search over a pre-built index.
// Implementations must be thread-safe for concurrent access.
type Store interface {
	// Store adds a single vector record to the store.
	Store(ctx context.Context, record Record) error

	// StoreBatch adds multiple vector records efficiently.
	StoreBatch(ctx context.Context, records []Record) error

	// Search finds similar records by embedding vector.
	Search(ctx context.Context, query Query) ([]Result, error)

	// Get retrieves a specific record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)

	// Health returns the health status of the vector store.
	Health(ctx context.Context) types.HealthStatus

	// Close releases all resources held by the vector store.
	Close() error
}
