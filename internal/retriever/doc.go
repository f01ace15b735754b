// Package retriever implements the retrieval core: cosine similarity ranking,
// keyword-boosted re-ranking, and the read-side orchestration that turns a
// question into ranked chunks and a formatted grounding context.
//
// The retriever is stateless between calls. All I/O happens through narrow
// injected interfaces: an Embedder for query vectors and a candidate source,
// which is either a full corpus scan or an approximate vector index plus a
// hydrating store.
//
// # Basic Usage
//
//	r := retriever.NewBruteForce(embedder, store, retriever.DefaultConfig())
//
//	resp, err := r.Retrieve(ctx, retriever.Request{
//	    Query: "What is the capital of Sweden?",
//	    K:     4,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, res := range resp.Results {
//	    fmt.Printf("[%s] %.4f %s\n", res.Ref, res.Score, res.Content)
//	}
//
// resp.Context holds the newline-joined "[ref] text" block ready for prompt
// assembly. An empty Context means nothing relevant was found; the caller
// must handle that as a well-defined outcome rather than a failure.
//
// # Candidate Sources
//
// Brute-force mode scores every stored chunk:
//
//   - The corpus arrives as one consistent snapshot in insertion order
//
//   - Cosine similarity against the query vector ranks every entry
//
//   - Ties keep corpus order (stable sort), so rankings are reproducible
//
// Indexed mode delegates nearest-neighbor search to a vector index:
//
//   - At least max(k, PoolFloor) candidates are requested so the keyword
//     boost has room to promote lower-ranked matches into the final K
//
//   - Candidates are hydrated from the store; a candidate whose hydration
//     fails is dropped without failing the query
//
//   - The boosted pool is re-sorted, blank texts discarded, and truncated
//
// The two modes are mutually exclusive and selected at construction.
//
// # Keyword Boost
//
// Dense embeddings often under-rank exact entity matches. The boost
// tokenizes the query on non-alphanumeric characters, lower-cases, discards
// short tokens and stop words, then adds BoostPerHit for each token found as
// a literal substring of a candidate's text, capped at BoostCap:
//
//	tokens := retriever.QueryTokens("Where is Stockholm?", 2, stopWords)
//	boost := retriever.KeywordBoost(tokens, text, 0.05, 0.2) // in [0, 0.2]
//
// The per-hit increment and cap are tuning parameters carried in Config.
//
// # Scoring
//
// Cosine similarity is dot(a,b) / (|a|*|b|), always in [-1, 1]. A zero
// magnitude vector scores exactly 0 rather than NaN. Vectors of differing
// lengths are rejected with ErrDimensionMismatch at the ranking layer.
// Display scores are rounded to 4 decimals; ranking uses full precision.
//
// # Caching
//
// Responses are cached per query/k/mode in an LRU with TTL expiry. Cached
// responses are deep-copied on both store and load, so callers can never
// mutate cached state. Ingestion paths call InvalidateCache after corpus
// mutations.
package retriever
