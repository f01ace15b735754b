package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// fakeEmbedder returns canned vectors keyed by input text
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

// fakeCorpus serves a fixed corpus snapshot
type fakeCorpus struct {
	entries []types.CorpusEntry
	err     error
	calls   int
}

func (f *fakeCorpus) ListAll(_ context.Context) ([]types.CorpusEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

// fakeIndex serves fixed vector hits and records the requested pool size
type fakeIndex struct {
	hits      []types.VectorHit
	err       error
	lastTopK  int
	callCount int
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]types.VectorHit, error) {
	f.callCount++
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

// fakeHydrator resolves chunk ids from a map; ids in failing return errors
type fakeHydrator struct {
	entries map[int64]*types.CorpusEntry
	failing map[int64]bool
}

func (f *fakeHydrator) GetCorpusEntry(_ context.Context, chunkID int64) (*types.CorpusEntry, error) {
	if f.failing[chunkID] {
		return nil, errors.New("hydration failed")
	}
	entry, ok := f.entries[chunkID]
	if !ok {
		return nil, errors.New("not found")
	}
	return entry, nil
}

func stockholmEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"What is the capital of Sweden?": {0.9, 0.1, 0},
	}}
}

func TestRetrieve_BruteForce_SingleEntryCorpus(t *testing.T) {
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "Stockholm is the capital of Sweden.", Vector: []float32{1, 0, 0}, Source: "facts.txt"},
	}}

	r := NewBruteForce(stockholmEmbedder(), corpus, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 4})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	res := resp.Results[0]
	assert.Equal(t, "#1", res.Ref)
	assert.Equal(t, int64(1), res.ChunkID)
	assert.Greater(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.Equal(t, "Stockholm is the capital of Sweden.", res.Content)
	assert.Equal(t, "facts.txt", res.Source)

	assert.Equal(t, "[#1] Stockholm is the capital of Sweden.", resp.Context)
	assert.Equal(t, ModeBruteForce, resp.Mode)
	assert.Equal(t, 1, resp.PoolSize)
	assert.False(t, resp.CacheHit)
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	r := NewBruteForce(stockholmEmbedder(), &fakeCorpus{}, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?"})
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.Equal(t, "", resp.Context)
	assert.Equal(t, 0, resp.PoolSize)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	r := NewBruteForce(stockholmEmbedder(), &fakeCorpus{}, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRetrieve_EmbedderFailureIsFatal(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("model offline")}
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "anything", Vector: []float32{1}},
	}}

	r := NewBruteForce(emb, corpus, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "any question"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
	assert.Equal(t, 0, corpus.calls)
}

func TestRetrieve_EmptyVectorRejected(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}

	r := NewBruteForce(emb, &fakeCorpus{}, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "any question"})
	assert.ErrorIs(t, err, ErrMalformedVector)
}

func TestRetrieve_DimensionMismatchRejected(t *testing.T) {
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "wrong dims", Vector: []float32{1, 0}},
	}}

	r := NewBruteForce(stockholmEmbedder(), corpus, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRetrieve_DefaultK(t *testing.T) {
	entries := make([]types.CorpusEntry, 6)
	for i := range entries {
		entries[i] = types.CorpusEntry{
			ID:      int64(i + 1),
			Content: "entry",
			Vector:  []float32{1, 0, float32(i) * 0.1},
		}
	}

	r := NewBruteForce(stockholmEmbedder(), &fakeCorpus{entries: entries}, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, DefaultK)
}

func TestRetrieve_BruteForce_DuplicateIDsCollapsed(t *testing.T) {
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "first copy", Vector: []float32{1, 0, 0}},
		{ID: 1, Content: "second copy", Vector: []float32{1, 0, 0}},
		{ID: 2, Content: "distinct", Vector: []float32{0, 1, 0}},
	}}

	r := NewBruteForce(stockholmEmbedder(), corpus, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "first copy", resp.Results[0].Content)
	assert.Equal(t, 2, resp.PoolSize)
}

func indexedFixture() (*fakeIndex, *fakeHydrator) {
	index := &fakeIndex{hits: []types.VectorHit{
		{ChunkID: 101, Score: 0.9},
		{ChunkID: 102, Score: 0.8},
		{ChunkID: 103, Score: 0.7},
		{ChunkID: 104, Score: 0.6},
		{ChunkID: 105, Score: 0.5},
	}}
	hydrator := &fakeHydrator{
		entries: map[int64]*types.CorpusEntry{
			101: {ID: 101, Content: "about glaciers", Source: "nature.md"},
			102: {ID: 102, Content: "about fjords", Source: "nature.md"},
			103: {ID: 103, Content: "about auroras", Source: "nature.md"},
			104: {ID: 104, Content: "about tundra", Source: "nature.md"},
			105: {ID: 105, Content: "about permafrost", Source: "nature.md"},
		},
		failing: map[int64]bool{},
	}
	return index, hydrator
}

func TestRetrieve_Indexed_RequestsWiderPool(t *testing.T) {
	index, hydrator := indexedFixture()
	r := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 4})
	require.NoError(t, err)
	assert.Equal(t, DefaultPoolFloor, index.lastTopK)

	_, err = r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, index.lastTopK)
}

func TestRetrieve_Indexed_HydrationFailuresDropped(t *testing.T) {
	index, hydrator := indexedFixture()
	hydrator.failing[102] = true
	delete(hydrator.entries, 104)

	r := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 5})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, int64(101), resp.Results[0].ChunkID)
	assert.Equal(t, int64(103), resp.Results[1].ChunkID)
	assert.Equal(t, int64(105), resp.Results[2].ChunkID)
	assert.Equal(t, 3, resp.PoolSize)
}

func TestRetrieve_Indexed_KeywordBoostPromotes(t *testing.T) {
	index, hydrator := indexedFixture()
	index.hits = []types.VectorHit{
		{ChunkID: 101, Score: 0.90},
		{ChunkID: 102, Score: 0.85},
		{ChunkID: 103, Score: 0.80},
		{ChunkID: 104, Score: 0.78},
		{ChunkID: 105, Score: 0.72},
	}
	// The lowest-ranked hit carries both query keywords; 0.72 + 0.10 = 0.82
	// lifts it past the 0.80 and 0.78 candidates.
	hydrator.entries[105].Content = "Stockholm, capital of Sweden, sits on fourteen islands"

	r := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 4})
	require.NoError(t, err)

	require.Len(t, resp.Results, 4)
	assert.Equal(t, int64(101), resp.Results[0].ChunkID)
	assert.Equal(t, int64(102), resp.Results[1].ChunkID)
	assert.Equal(t, int64(105), resp.Results[2].ChunkID)
	assert.Equal(t, int64(103), resp.Results[3].ChunkID)
	assert.InDelta(t, 0.82, resp.Results[2].Score, 1e-9)
}

func TestRetrieve_Indexed_DuplicateHitsCollapsed(t *testing.T) {
	index, hydrator := indexedFixture()
	index.hits = []types.VectorHit{
		{ChunkID: 101, Score: 0.9},
		{ChunkID: 101, Score: 0.9},
		{ChunkID: 102, Score: 0.8},
	}

	r := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())

	resp, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 4})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestRetrieve_Indexed_IndexErrorIsFatal(t *testing.T) {
	index, hydrator := indexedFixture()
	index.err = errors.New("index offline")

	r := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())

	_, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector index query failed")
}

func TestRetrieve_CacheHit(t *testing.T) {
	emb := stockholmEmbedder()
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "Stockholm is the capital of Sweden.", Vector: []float32{1, 0, 0}},
	}}

	r := NewBruteForce(emb, corpus, DefaultConfig())
	req := Request{Query: "What is the capital of Sweden?", K: 4, UseCache: true}

	first, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	// Mutating the returned response must not poison the cache.
	first.Results[0].Content = "tampered"

	second, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, "Stockholm is the capital of Sweden.", second.Results[0].Content)

	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, corpus.calls)
}

func TestRetrieve_CacheExpiry(t *testing.T) {
	emb := stockholmEmbedder()
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "Stockholm is the capital of Sweden.", Vector: []float32{1, 0, 0}},
	}}

	r := NewBruteForce(emb, corpus, DefaultConfig())
	req := Request{Query: "What is the capital of Sweden?", UseCache: true, CacheTTL: time.Millisecond}

	_, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	resp, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, 2, emb.calls)
}

func TestRetrieve_InvalidateCache(t *testing.T) {
	emb := stockholmEmbedder()
	corpus := &fakeCorpus{entries: []types.CorpusEntry{
		{ID: 1, Content: "Stockholm is the capital of Sweden.", Vector: []float32{1, 0, 0}},
	}}

	r := NewBruteForce(emb, corpus, DefaultConfig())
	req := Request{Query: "What is the capital of Sweden?", UseCache: true}

	_, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)

	r.InvalidateCache()

	resp, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, 2, emb.calls)
}

func TestRetrieve_EmptyResultsNotCached(t *testing.T) {
	emb := stockholmEmbedder()
	corpus := &fakeCorpus{}

	r := NewBruteForce(emb, corpus, DefaultConfig())
	req := Request{Query: "What is the capital of Sweden?", UseCache: true}

	_, err := r.Retrieve(context.Background(), req)
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, emb.calls)
}

func TestRetrieve_DifferentKDifferentCacheEntries(t *testing.T) {
	emb := stockholmEmbedder()
	entries := make([]types.CorpusEntry, 6)
	for i := range entries {
		entries[i] = types.CorpusEntry{ID: int64(i + 1), Content: "entry", Vector: []float32{1, 0, 0}}
	}
	corpus := &fakeCorpus{entries: entries}

	r := NewBruteForce(emb, corpus, DefaultConfig())

	respA, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 2, UseCache: true})
	require.NoError(t, err)
	respB, err := r.Retrieve(context.Background(), Request{Query: "What is the capital of Sweden?", K: 5, UseCache: true})
	require.NoError(t, err)

	assert.Len(t, respA.Results, 2)
	assert.Len(t, respB.Results, 5)
	assert.False(t, respB.CacheHit)
}

func TestFormatContext(t *testing.T) {
	tests := []struct {
		name     string
		results  []types.ScoredChunk
		expected string
	}{
		{
			name:     "empty results yield empty context",
			results:  nil,
			expected: "",
		},
		{
			name: "single result",
			results: []types.ScoredChunk{
				{Ref: "#1", Content: "Stockholm is the capital of Sweden."},
			},
			expected: "[#1] Stockholm is the capital of Sweden.",
		},
		{
			name: "multiple results joined by newlines",
			results: []types.ScoredChunk{
				{Ref: "#1", Content: "first passage"},
				{Ref: "#2", Content: "second passage"},
				{Ref: "#3", Content: "third passage"},
			},
			expected: "[#1] first passage\n[#2] second passage\n[#3] third passage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatContext(tt.results))
		})
	}
}

func TestRetriever_Mode(t *testing.T) {
	brute := NewBruteForce(stockholmEmbedder(), &fakeCorpus{}, DefaultConfig())
	assert.Equal(t, ModeBruteForce, brute.Mode())

	index, hydrator := indexedFixture()
	indexed := NewIndexed(stockholmEmbedder(), index, hydrator, DefaultConfig())
	assert.Equal(t, ModeIndexed, indexed.Mode())
}

func TestEmbedderFunc(t *testing.T) {
	f := EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text))}, nil
	})

	vec, err := f.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
}
