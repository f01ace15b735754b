package retriever

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// cacheEntry is a cached retrieval response with its expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// queryCache caches retrieval responses keyed by query hash. Entries expire
// after their TTL and the LRU evicts least-recently-used entries at capacity.
type queryCache struct {
	mu    sync.RWMutex
	cache *lru.Cache[[32]byte, *cacheEntry]
}

// newQueryCache creates a query cache with the given entry capacity
func newQueryCache(size int) *queryCache {
	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		// Only possible with a non-positive size, which normalize prevents
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &queryCache{cache: cache}
}

// get returns a deep copy of the cached response, or nil on a miss or an
// expired entry
func (qc *queryCache) get(key [32]byte) *Response {
	now := time.Now()

	qc.mu.RLock()
	entry, found := qc.cache.Get(key)
	if !found {
		qc.mu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		qc.mu.RUnlock()

		qc.mu.Lock()
		qc.cache.Remove(key)
		qc.mu.Unlock()
		return nil
	}

	// Copy while still holding the read lock so the entry cannot change
	// mid-copy.
	response := copyResponse(entry.response)
	qc.mu.RUnlock()

	return response
}

// put stores a deep copy of the response under the key with the given TTL
func (qc *queryCache) put(key [32]byte, response *Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(ttl),
	}

	qc.mu.Lock()
	qc.cache.Add(key, entry)
	qc.mu.Unlock()
}

// purge drops every cached entry
func (qc *queryCache) purge() {
	qc.mu.Lock()
	qc.cache.Purge()
	qc.mu.Unlock()
}

// requestKey computes a deterministic hash identifying a retrieval request
func requestKey(req Request, mode Mode) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", req.K))
	data.WriteString("|")
	data.WriteString(string(mode))

	return sha256.Sum256([]byte(data.String()))
}

// copyResponse creates a deep copy of a Response so callers can never
// mutate cached state
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		Context:  src.Context,
		Mode:     src.Mode,
		Duration: src.Duration,
		CacheHit: src.CacheHit,
		PoolSize: src.PoolSize,
		Results:  make([]types.ScoredChunk, len(src.Results)),
	}

	for i, result := range src.Results {
		dst.Results[i] = types.ScoredChunk{
			Ref:     result.Ref,
			ChunkID: result.ChunkID,
			Score:   result.Score,
			Content: result.Content,
			Source:  result.Source,
		}

		if result.Meta != nil {
			meta := make(map[string]string, len(result.Meta))
			for k, v := range result.Meta {
				meta[k] = v
			}
			dst.Results[i].Meta = meta
		}
	}

	return dst
}
