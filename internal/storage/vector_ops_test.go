package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedEmbeddedChunk inserts a chunk with an embedding and returns its id
func seedEmbeddedChunk(t *testing.T, ctx context.Context, storage *SQLiteStorage, documentID int64, seq int, content string, vector []float32) int64 {
	t.Helper()

	chunk := makeTestChunk(documentID, seq, content)
	_, err := storage.InsertChunk(ctx, chunk)
	require.NoError(t, err)

	err = storage.UpsertEmbedding(ctx, &Embedding{
		ChunkID:   chunk.ID,
		Vector:    SerializeVector(vector),
		Dimension: len(vector),
		Provider:  "local",
		Model:     "deterministic",
	})
	require.NoError(t, err)

	return chunk.ID
}

func TestSearchVector_RanksBySimilarity(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	exact := seedEmbeddedChunk(t, ctx, storage, doc.ID, 0, "an exact match", []float32{1, 0, 0})
	near := seedEmbeddedChunk(t, ctx, storage, doc.ID, 1, "a near match", []float32{0.9, 0.1, 0})
	far := seedEmbeddedChunk(t, ctx, storage, doc.ID, 2, "an orthogonal passage", []float32{0, 0, 1})

	hits, err := storage.SearchVector(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, exact, hits[0].ChunkID)
	assert.Equal(t, near, hits[1].ChunkID)
	assert.Equal(t, far, hits[2].ChunkID)

	assert.InDelta(t, 1.0, hits[0].Score, 1e-4)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestSearchVector_LimitTruncates(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	for i := 0; i < 5; i++ {
		seedEmbeddedChunk(t, ctx, storage, doc.ID, i,
			"passage number "+string(rune('A'+i)),
			[]float32{float32(i) * 0.1, 1, 0})
	}

	hits, err := storage.SearchVector(ctx, []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// Limit larger than corpus returns everything
	hits, err = storage.SearchVector(ctx, []float32{0, 1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 5)

	// Non-positive limit returns nothing
	hits, err = storage.SearchVector(ctx, []float32{0, 1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchVector_EmptyVector(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.SearchVector(ctx, nil, 10)
	assert.Error(t, err)
}

func TestSearchVector_SkipsMismatchedDimensions(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	matching := seedEmbeddedChunk(t, ctx, storage, doc.ID, 0, "embedded at three dimensions", []float32{1, 0, 0})
	seedEmbeddedChunk(t, ctx, storage, doc.ID, 1, "embedded at two dimensions", []float32{1, 0})

	hits, err := storage.SearchVector(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, matching, hits[0].ChunkID)
}

// TestSearchVector_OptimizedMatchesFallback verifies that the sqlite-vec
// path and the Go fallback agree on the same corpus
func TestSearchVector_OptimizedMatchesFallback(t *testing.T) {
	if !VectorExtensionAvailable {
		t.Skip("Skipping test: sqlite-vec extension not available")
	}

	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	for i := 0; i < 8; i++ {
		seedEmbeddedChunk(t, ctx, storage, doc.ID, i,
			"comparison passage "+string(rune('A'+i)),
			[]float32{float32(i) * 0.125, 1 - float32(i)*0.125, 0.5})
	}

	queryVector := []float32{0.3, 0.7, 0.5}

	optimized, err := searchVectorOptimized(ctx, storage.querier(), queryVector, 5)
	require.NoError(t, err)

	fallback, err := searchVectorFallback(ctx, storage.querier(), queryVector, 5)
	require.NoError(t, err)

	require.Equal(t, len(fallback), len(optimized))
	for i := range optimized {
		// sqlite-vec computes in float32, the fallback in float64, so
		// scores agree only approximately
		assert.Equal(t, fallback[i].ChunkID, optimized[i].ChunkID)
		assert.InDelta(t, fallback[i].Score, optimized[i].Score, 1e-3)
	}
}

func seedTextCorpus(t *testing.T, ctx context.Context, storage *SQLiteStorage) (install, report, rotate int64) {
	t.Helper()

	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	install = seedEmbeddedChunk(t, ctx, storage, doc.ID, 0,
		"Install the toolchain prerequisites before building the project.",
		[]float32{1, 0, 0})
	report = seedEmbeddedChunk(t, ctx, storage, doc.ID, 1,
		"The quarterly report covers revenue growth and customer churn.",
		[]float32{0, 1, 0})
	rotate = seedEmbeddedChunk(t, ctx, storage, doc.ID, 2,
		"Restart the gateway after rotating its credentials.",
		[]float32{0, 0, 1})
	return install, report, rotate
}

func TestSearchText_FindsMatchingChunks(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	install, _, _ := seedTextCorpus(t, ctx, storage)

	hits, err := storage.SearchText(ctx, "prerequisites", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, install, hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Less(t, hits[0].Score, 1.0)
}

func TestSearchText_MatchesAnyTerm(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	install, report, _ := seedTextCorpus(t, ctx, storage)

	hits, err := storage.SearchText(ctx, "prerequisites churn", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	ids := []int64{hits[0].ChunkID, hits[1].ChunkID}
	assert.Contains(t, ids, install)
	assert.Contains(t, ids, report)
}

func TestSearchText_RanksMoreMatchingTermsHigher(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := makeTestDocument("corpus.md", "corpus")
	require.NoError(t, storage.UpsertDocument(ctx, doc))

	both := seedEmbeddedChunk(t, ctx, storage, doc.ID, 0,
		"Rotating credentials requires a gateway restart and a careful rollout.",
		[]float32{1, 0})
	one := seedEmbeddedChunk(t, ctx, storage, doc.ID, 1,
		"Credentials are stored inside the vault for safekeeping afterwards.",
		[]float32{0, 1})

	hits, err := storage.SearchText(ctx, "rotating credentials", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, both, hits[0].ChunkID)
	assert.Equal(t, one, hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchText_NeutralizesOperators(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedTextCorpus(t, ctx, storage)

	// Operator keywords and punctuation must not reach FTS5 as syntax
	for _, query := range []string{
		"credentials AND (rotating OR nothing)",
		"prerequisites NEAR churn",
		`install* the "toolchain"`,
	} {
		_, err := storage.SearchText(ctx, query, 10)
		assert.NoError(t, err, "query %q should be sanitized, not parsed", query)
	}
}

func TestSearchText_EmptyQuery(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.SearchText(ctx, "", 10)
	assert.Error(t, err)

	_, err = storage.SearchText(ctx, "   ", 10)
	assert.Error(t, err)
}

func TestSearchText_NoMatches(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedTextCorpus(t, ctx, storage)

	hits, err := storage.SearchText(ctx, "xylophone", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchText_LimitTruncates(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedTextCorpus(t, ctx, storage)

	hits, err := storage.SearchText(ctx, "prerequisites churn", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = storage.SearchText(ctx, "prerequisites churn", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain words become quoted phrases",
			input:    "hello world",
			expected: `"hello" OR "world"`,
		},
		{
			name:     "operators are quoted like any other token",
			input:    "hello AND world",
			expected: `"hello" OR "AND" OR "world"`,
		},
		{
			name:     "embedded quotes are doubled",
			input:    `say "hi"`,
			expected: `"say" OR """hi"""`,
		},
		{
			name:     "empty query",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \t  ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFTSQuery(tt.input))
		})
	}
}

func TestSerializeDeserializeVector(t *testing.T) {
	vectors := [][]float32{
		{0.1, -0.2, 0.3},
		{1, 0, 0, 0},
		{},
	}

	for _, vector := range vectors {
		blob := SerializeVector(vector)
		assert.Len(t, blob, len(vector)*4)

		restored := DeserializeVector(blob)
		assert.Equal(t, vector, restored)
	}
}

func TestSortCandidates_TiesAreDeterministic(t *testing.T) {
	candidates := []candidate{
		{chunkID: 7, score: 0.5},
		{chunkID: 3, score: 0.5},
		{chunkID: 9, score: 0.9},
	}

	sortCandidates(candidates)

	assert.Equal(t, int64(9), candidates[0].chunkID)
	assert.Equal(t, int64(3), candidates[1].chunkID)
	assert.Equal(t, int64(7), candidates[2].chunkID)
}
