package embedder

import "github.com/CodeNeuron58/RxGuard/internal/types"

// Embedder error codes
const (
	ErrCodeInvalidConfig       types.ErrorCode = "EMBEDDER_INVALID_CONFIG"
	ErrCodeEmbeddingFailed     types.ErrorCode = "EMBEDDER_EMBEDDING_FAILED"
	ErrCodeEmbedderUnavailable types.ErrorCode = "EMBEDDER_UNAVAILABLE"
)
