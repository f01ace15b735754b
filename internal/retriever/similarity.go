package retriever

import (
	"fmt"
	"math"
	"sort"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// CosineSimilarity computes the cosine similarity between two vectors,
// dot(a,b) / (|a| * |b|), in the range [-1, 1].
// Returns 0 if either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scoredEntry pairs a corpus entry with its full-precision similarity score
type scoredEntry struct {
	entry *types.CorpusEntry
	score float64
}

// TopK scores every corpus entry against the query vector and returns the k
// best matches in descending score order. Equal scores keep corpus order
// (stable sort), so repeated calls over the same corpus return identical
// sequences and growing k never reorders the prefix. Entries whose vectors
// differ in length from the query are rejected with ErrDimensionMismatch
// rather than silently scored.
//
// Display refs "#1".."#k" are assigned in final rank order and scores are
// rounded to 4 decimal places on output; ranking itself uses full precision.
func TopK(queryVector []float32, corpus []types.CorpusEntry, k int) ([]types.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultK
	}

	scored := make([]scoredEntry, 0, len(corpus))
	for i := range corpus {
		entry := &corpus[i]
		if len(entry.Vector) != len(queryVector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, chunk %d has %d",
				ErrDimensionMismatch, len(queryVector), entry.ID, len(entry.Vector))
		}
		scored = append(scored, scoredEntry{
			entry: entry,
			score: CosineSimilarity(queryVector, entry.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if k > len(scored) {
		k = len(scored)
	}

	results := make([]types.ScoredChunk, 0, k)
	for i := 0; i < k; i++ {
		se := scored[i]
		results = append(results, types.ScoredChunk{
			Ref:     formatRef(i + 1),
			ChunkID: se.entry.ID,
			Score:   roundScore(se.score),
			Content: se.entry.Content,
			Source:  se.entry.Source,
			Meta:    se.entry.Meta,
		})
	}

	return results, nil
}

// formatRef renders the 1-based display reference for a rank position
func formatRef(rank int) string {
	return fmt.Sprintf("#%d", rank)
}

// roundScore rounds a score to 4 decimal places for display stability.
// Ranking always compares full-precision values.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
