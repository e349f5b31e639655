package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// HashEmbedder generates deterministic embeddings from text hashes.
// The same text always produces the same unit-length vector, which keeps
// retrieval fully deterministic for a fixed index and query. Token-level
// hashing means texts sharing clinical terms land closer together than
// unrelated texts, which is enough signal for similarity ranking over a
// curated guideline index without an external inference backend.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a deterministic hash-based embedder.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed generates a deterministic embedding for a single text.
// The vector is the normalized sum of per-token hash vectors, so overlapping
// vocabulary between two texts raises their cosine similarity.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(ErrCodeEmbeddingFailed, "context canceled", err)
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, types.NewError(ErrCodeEmbeddingFailed, "cannot embed empty text")
	}

	sum := make([]float64, e.dimensions)
	for _, token := range tokens {
		vec := hashVector(token, e.dimensions)
		for i := range sum {
			sum[i] += vec[i]
		}
	}

	return normalizeVector(sum), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))
	for i, text := range texts {
		embedding, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = embedding
	}
	return results, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the name of the embedding model.
func (e *HashEmbedder) Model() string {
	return "hash-token-v1"
}

// Health checks if the embedder is operational.
func (e *HashEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("hash embedder operational")
}

// tokenize lowercases and splits text on non-alphanumeric boundaries.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isLetter := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		return !isLetter && !isDigit
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// hashVector derives a deterministic unit-variance vector from a token.
// The SHA256 hash seeds a PRNG so the mapping is stable across processes.
func hashVector(token string, dimensions int) []float64 {
	hash := sha256.Sum256([]byte(token))
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float64, dimensions)
	for i := 0; i < dimensions; i++ {
		vec[i] = (rng.Float64() * 2) - 1
	}
	return vec
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float64) []float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}

	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	normalized := make([]float64, len(v))
	for i, val := range v {
		normalized[i] = val / norm
	}

	return normalized
}
