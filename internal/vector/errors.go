package vector

import "github.com/CodeNeuron58/RxGuard/internal/types"

// Vector store error codes
const (
	ErrCodeVectorStoreFailed  types.ErrorCode = "VECTOR_STORE_FAILED"
	ErrCodeVectorSearchFailed types.ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeVectorNotFound     types.ErrorCode = "VECTOR_NOT_FOUND"
)
