package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// Retrieval errors
var (
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrMalformedVector   = errors.New("embedder returned an empty vector")
	ErrNoCandidateSource = errors.New("no candidate source configured")
)

// Mode selects how ranking candidates are obtained
type Mode string

const (
	// ModeBruteForce scores every stored chunk against the query vector
	ModeBruteForce Mode = "brute-force"

	// ModeIndexed asks an approximate vector index for a candidate pool,
	// hydrates it from the store, and re-ranks with the keyword boost
	ModeIndexed Mode = "indexed"
)

// Embedder produces the query vector for ranking
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f(ctx, text)
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// CorpusLister returns every stored chunk with its embedding, in insertion
// order, as one consistent snapshot. A scan must never observe a chunk whose
// embedding has not been stored yet.
type CorpusLister interface {
	ListAll(ctx context.Context) ([]types.CorpusEntry, error)
}

// VectorQuerier returns approximate nearest-neighbor candidates for a query
// vector, scored but unhydrated.
type VectorQuerier interface {
	Query(ctx context.Context, vector []float32, topK int) ([]types.VectorHit, error)
}

// Hydrator resolves a vector-index candidate id to its stored chunk record
type Hydrator interface {
	GetCorpusEntry(ctx context.Context, chunkID int64) (*types.CorpusEntry, error)
}

// Request contains parameters for one retrieval operation
type Request struct {
	Query    string
	K        int // result count; <= 0 means the configured default
	UseCache bool
	CacheTTL time.Duration
}

// Response contains ranked results and retrieval metadata
type Response struct {
	Results  []types.ScoredChunk
	Context  string // newline-joined "[ref] text" blocks; empty when nothing relevant was found
	Mode     Mode
	Duration time.Duration
	CacheHit bool
	PoolSize int // candidates considered before truncation
}

// Retriever composes an embedder with a candidate source into the read-side
// retrieval operation. It never mutates stored chunks.
type Retriever struct {
	embedder Embedder
	corpus   CorpusLister
	index    VectorQuerier
	store    Hydrator
	mode     Mode
	cfg      Config
	cache    *queryCache
}

// NewBruteForce creates a Retriever that ranks by scanning the full corpus
func NewBruteForce(embedder Embedder, corpus CorpusLister, cfg Config) *Retriever {
	cfg.normalize()
	return &Retriever{
		embedder: embedder,
		corpus:   corpus,
		mode:     ModeBruteForce,
		cfg:      cfg,
		cache:    newQueryCache(cfg.CacheSize),
	}
}

// NewIndexed creates a Retriever that pulls candidates from a vector index
// and hydrates them from the store
func NewIndexed(embedder Embedder, index VectorQuerier, store Hydrator, cfg Config) *Retriever {
	cfg.normalize()
	return &Retriever{
		embedder: embedder,
		index:    index,
		store:    store,
		mode:     ModeIndexed,
		cfg:      cfg,
		cache:    newQueryCache(cfg.CacheSize),
	}
}

// Mode reports which candidate source the retriever is configured with
func (r *Retriever) Mode() Mode {
	return r.mode
}

// Config returns the active retrieval configuration
func (r *Retriever) Config() Config {
	return r.cfg
}

// Retrieve embeds the query, obtains and ranks candidates, and formats the
// grounding context. Embedding failures are fatal to the request; per
// candidate hydration failures are not.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if r.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	if err := r.validateRequest(&req); err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := r.cache.get(requestKey(req, r.mode)); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	vector, err := r.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, ErrMalformedVector
	}

	var (
		results  []types.ScoredChunk
		poolSize int
	)

	switch r.mode {
	case ModeBruteForce:
		results, poolSize, err = r.bruteForce(ctx, vector, req.K)
	case ModeIndexed:
		results, poolSize, err = r.indexed(ctx, req.Query, vector, req.K)
	default:
		err = ErrNoCandidateSource
	}
	if err != nil {
		return nil, err
	}

	response := &Response{
		Results:  results,
		Context:  FormatContext(results),
		Mode:     r.mode,
		Duration: time.Since(startTime),
		PoolSize: poolSize,
	}

	if req.UseCache && len(response.Results) > 0 {
		r.cache.put(requestKey(req, r.mode), response, req.CacheTTL)
	}

	return response, nil
}

// bruteForce ranks the full corpus against the query vector
func (r *Retriever) bruteForce(ctx context.Context, vector []float32, k int) ([]types.ScoredChunk, int, error) {
	if r.corpus == nil {
		return nil, 0, ErrNoCandidateSource
	}

	corpus, err := r.corpus.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list corpus: %w", err)
	}

	corpus = dedupeEntries(corpus)

	results, err := TopK(vector, corpus, k)
	if err != nil {
		return nil, 0, err
	}

	return results, len(corpus), nil
}

// indexed pulls a wider-than-k candidate pool from the vector index,
// hydrates it, and re-ranks with the keyword boost
func (r *Retriever) indexed(ctx context.Context, query string, vector []float32, k int) ([]types.ScoredChunk, int, error) {
	if r.index == nil || r.store == nil {
		return nil, 0, ErrNoCandidateSource
	}

	poolSize := k
	if poolSize < r.cfg.PoolFloor {
		poolSize = r.cfg.PoolFloor
	}

	hits, err := r.index.Query(ctx, vector, poolSize)
	if err != nil {
		return nil, 0, fmt.Errorf("vector index query failed: %w", err)
	}

	hits = dedupeHits(hits)

	pool := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		entry, err := r.store.GetCorpusEntry(ctx, hit.ChunkID)
		if err != nil || entry == nil {
			continue // drop candidates that fail to hydrate
		}
		pool = append(pool, Candidate{
			ChunkID: hit.ChunkID,
			Score:   hit.Score,
			Content: entry.Content,
			Source:  entry.Source,
			Meta:    entry.Meta,
		})
	}

	return Rerank(query, pool, k, r.cfg), len(pool), nil
}

// validateRequest ensures the retrieval request is valid and applies defaults
func (r *Retriever) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return ErrEmptyQuery
	}

	if req.K <= 0 {
		req.K = r.cfg.DefaultK
	}

	if req.CacheTTL <= 0 {
		req.CacheTTL = r.cfg.CacheTTL
	}

	return nil
}

// InvalidateCache drops all cached responses. Called after corpus mutations
// so stale rankings are never served.
func (r *Retriever) InvalidateCache() {
	r.cache.purge()
}

// FormatContext renders ranked results as the newline-joined "[ref] text"
// block handed to downstream generation. Zero results yield an empty string,
// the no-relevant-context signal; no context is ever fabricated.
func FormatContext(results []types.ScoredChunk) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", res.Ref, res.Content)
	}

	return b.String()
}

// dedupeEntries drops repeated chunk ids from a corpus scan, keeping the
// first occurrence so corpus order is preserved
func dedupeEntries(entries []types.CorpusEntry) []types.CorpusEntry {
	seen := make(map[int64]struct{}, len(entries))
	out := make([]types.CorpusEntry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// dedupeHits drops repeated chunk ids from a candidate pool, keeping the
// first (highest-ranked) occurrence
func dedupeHits(hits []types.VectorHit) []types.VectorHit {
	seen := make(map[int64]struct{}, len(hits))
	out := make([]types.VectorHit, 0, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ChunkID]; dup {
			continue
		}
		seen[h.ChunkID] = struct{}{}
		out = append(out, h)
	}
	return out
}
