package retriever

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// DefaultStopWords returns the stop-word set discarded during query
// tokenization: articles, pronouns, and common question words that carry no
// lexical signal of their own.
func DefaultStopWords() map[string]struct{} {
	words := []string{
		"the", "is", "are", "in", "of", "and", "to", "a", "an",
		"where", "what", "which", "who", "how", "does", "do", "did",
		"on", "at", "for", "with", "from", "by", "about", "into",
		"over", "under", "it", "its", "be", "was", "were", "been",
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// QueryTokens splits a query on non-alphanumeric characters, lower-cases the
// pieces, and discards tokens of at most minLen runes along with stop-word
// members. The surviving tokens drive the keyword boost.
func QueryTokens(query string, minLen int, stopWords map[string]struct{}) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) <= minLen {
			continue
		}
		if _, stopped := stopWords[tok]; stopped {
			continue
		}
		tokens = append(tokens, tok)
	}

	return tokens
}

// KeywordBoost returns the additive score adjustment for a candidate text:
// perHit for each token appearing as a case-insensitive literal substring,
// with the total clamped to limit. The result is always in [0, limit].
func KeywordBoost(tokens []string, text string, perHit, limit float64) float64 {
	if len(tokens) == 0 || text == "" || perHit <= 0 {
		return 0
	}

	lowered := strings.ToLower(text)

	var boost float64
	for _, tok := range tokens {
		if strings.Contains(lowered, tok) {
			boost += perHit
		}
	}

	if limit > 0 && boost > limit {
		boost = limit
	}

	return boost
}

// Candidate is a hydrated ranking-pool entry: a vector-index hit joined with
// its stored text and metadata.
type Candidate struct {
	ChunkID int64
	Score   float64
	Content string
	Source  string
	Meta    map[string]string
}

// Rerank applies the keyword boost to a hydrated candidate pool, re-sorts
// descending by boosted score (ties keep pool order), discards candidates
// with blank text, and truncates to k. Dense embeddings under-rank exact
// entity matches; the boost lets a keyword-heavy candidate from deeper in
// the pool displace a semantically-close but lexically-empty one.
func Rerank(query string, pool []Candidate, k int, cfg Config) []types.ScoredChunk {
	if k <= 0 {
		k = DefaultK
	}

	tokens := QueryTokens(query, cfg.MinTokenLen, cfg.StopWords)

	boosted := make([]Candidate, len(pool))
	copy(boosted, pool)
	for i := range boosted {
		boosted[i].Score += KeywordBoost(tokens, boosted[i].Content, cfg.BoostPerHit, cfg.BoostCap)
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Score > boosted[j].Score
	})

	results := make([]types.ScoredChunk, 0, k)
	for _, c := range boosted {
		if len(results) == k {
			break
		}
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		results = append(results, types.ScoredChunk{
			Ref:     formatRef(len(results) + 1),
			ChunkID: c.ChunkID,
			Score:   roundScore(c.Score),
			Content: c.Content,
			Source:  c.Source,
			Meta:    c.Meta,
		})
	}

	return results
}
