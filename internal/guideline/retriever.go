package guideline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/CodeNeuron58/RxGuard/internal/embedder"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
	"github.com/CodeNeuron58/RxGuard/internal/vector"
)

// Retriever finds guideline excerpts relevant to a (condition, drug) pair.
// Injected into the pipeline as a read-only dependency so tests can swap it.
type Retriever interface {
	// Retrieve returns up to topK excerpts ordered descending by relevance.
	// An unavailable or empty index yields an empty sequence, not an error.
	Retrieve(ctx context.Context, condition, drug string, topK int) ([]schema.GuidelineExcerpt, error)
}

// StoreRetriever implements Retriever over a vector store and an embedder.
type StoreRetriever struct {
	store    vector.Store
	embedder embedder.Embedder
	logger   *slog.Logger
}

// Option is a functional option for configuring StoreRetriever
type Option func(*StoreRetriever)

// WithLogger configures the retriever to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *StoreRetriever) {
		r.logger = logger
	}
}

// NewStoreRetriever creates a retriever over the given index and embedder.
func NewStoreRetriever(store vector.Store, emb embedder.Embedder, opts ...Option) *StoreRetriever {
	r := &StoreRetriever{
		store:    store,
		embedder: emb,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve embeds the combined query and performs nearest-neighbor search
// against the guideline index. Deterministic for a fixed index and query;
// the store breaks score ties by insertion order.
func (r *StoreRetriever) Retrieve(ctx context.Context, condition, drug string, topK int) ([]schema.GuidelineExcerpt, error) {
	if strings.TrimSpace(condition) == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "retrieval condition cannot be empty")
	}
	if strings.TrimSpace(drug) == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "retrieval drug cannot be empty")
	}
	if topK < 1 {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("topK must be at least 1, got %d", topK))
	}

	query := buildQuery(condition, drug)

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		// Degraded evidence, not a run failure: the reasoner handles an
		// empty excerpt set.
		r.logger.WarnContext(ctx, "query embedding failed, returning no evidence",
			"condition", condition,
			"drug", drug,
			"error", types.WrapError(types.RETRIEVAL_UNAVAILABLE, "query embedding failed", err),
		)
		return []schema.GuidelineExcerpt{}, nil
	}

	results, err := r.store.Search(ctx, *vector.NewQuery(queryEmbedding, topK))
	if err != nil {
		r.logger.WarnContext(ctx, "guideline index unavailable, returning no evidence",
			"condition", condition,
			"drug", drug,
			"error", types.WrapError(types.RETRIEVAL_UNAVAILABLE, "guideline index search failed", err),
		)
		return []schema.GuidelineExcerpt{}, nil
	}

	excerpts := make([]schema.GuidelineExcerpt, 0, len(results))
	for _, res := range results {
		excerpt, err := excerptFromRecord(res)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping malformed index record",
				"record_id", res.Record.ID,
				"error", err,
			)
			continue
		}
		excerpts = append(excerpts, *excerpt)
	}

	r.logger.DebugContext(ctx, "retrieved guideline excerpts",
		"condition", condition,
		"drug", drug,
		"count", len(excerpts),
	)

	return excerpts, nil
}

// buildQuery combines patient condition and proposed drug into the retrieval
// query. The phrasing biases the index toward prescribing guidance passages.
func buildQuery(condition, drug string) string {
	return fmt.Sprintf("Prescribing guidance for %s in patients with %s contraindications dosing",
		drug, condition)
}

// excerptFromRecord maps a search hit to a GuidelineExcerpt using the
// record's source and locator metadata.
func excerptFromRecord(res vector.Result) (*schema.GuidelineExcerpt, error) {
	source, _ := res.Record.Metadata["source"].(string)
	locator, _ := res.Record.Metadata["locator"].(string)
	return schema.NewGuidelineExcerpt(source, locator, res.Record.Content, res.Score)
}

// IndexEntry is one guideline passage to seed into an index.
type IndexEntry struct {
	Source  string `yaml:"source" json:"source"`
	Locator string `yaml:"locator" json:"locator"`
	Text    string `yaml:"text" json:"text"`
}

// Seed embeds and stores guideline passages into a vector store.
// Intended for tests and for loading a prepared index at startup; document
// chunking and PDF extraction happen upstream of this seam.
func Seed(ctx context.Context, store vector.Store, emb embedder.Embedder, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	embeddings, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return types.WrapError(vector.ErrCodeVectorStoreFailed, "failed to embed guideline passages", err)
	}

	records := make([]vector.Record, len(entries))
	for i, e := range entries {
		records[i] = *vector.NewRecord(uuid.New().String(), e.Text, embeddings[i], map[string]any{
			"source":  e.Source,
			"locator": e.Locator,
		})
	}

	return store.StoreBatch(ctx, records)
}
