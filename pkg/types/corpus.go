package types

import "math"

// CorpusEntry is a chunk joined with its stored embedding, as returned by a
// full corpus scan. Entries arrive in insertion order (ascending chunk ID),
// which is the tie-break order for equal similarity scores.
type CorpusEntry struct {
	ID      int64
	Content string
	Vector  []float32
	Source  string
	Meta    map[string]string
}

// VectorHit is one candidate returned by a vector index, scored but not yet
// hydrated with chunk content.
type VectorHit struct {
	ChunkID int64
	Score   float64
}

// ScoredChunk is a ranked retrieval result. Ref is the 1-based display
// reference ("#1", "#2", ...) used to cite the chunk inside prompt context.
type ScoredChunk struct {
	// Identification
	Ref     string
	ChunkID int64

	// Scoring
	Score float64 // cosine similarity plus any keyword boost, rounded to 4 decimals

	// Content
	Content string
	Source  string
	Meta    map[string]string
}

// Validate checks if the scored chunk is valid.
func (sc *ScoredChunk) Validate() error {
	if sc.ChunkID <= 0 {
		return ErrInvalidChunkID
	}

	if sc.Ref == "" {
		return ErrMissingRef
	}

	// Keyword boosting can push scores above plain cosine's upper bound,
	// so only reject values no scoring path can produce.
	if math.IsNaN(sc.Score) || math.IsInf(sc.Score, 0) {
		return ErrInvalidScore
	}

	if sc.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
