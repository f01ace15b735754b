package retriever

import "time"

const (
	// DefaultK is the result count when a request leaves K unset
	DefaultK = 4

	// DefaultPoolFloor is the minimum candidate pool requested from a vector
	// index. Pulling more than k candidates gives the keyword boost room to
	// promote lower-ranked matches into the final K.
	DefaultPoolFloor = 12

	// DefaultBoostPerHit is the additive score increment per matched query token
	DefaultBoostPerHit = 0.05

	// DefaultBoostCap is the ceiling on the total keyword boost, so at most
	// four hits count and keyword matching never dominates vector similarity
	DefaultBoostCap = 0.2

	// DefaultMinTokenLen discards query tokens of this many runes or fewer
	DefaultMinTokenLen = 2

	// DefaultCacheSize is the query cache capacity in entries
	DefaultCacheSize = 1000

	// DefaultCacheTTL is how long cached responses stay valid
	DefaultCacheTTL = 1 * time.Hour
)

// Config carries the retrieval tuning knobs. The boost constants and the
// stop-word set are empirically tuned values, not correctness requirements,
// so they stay adjustable per deployment.
type Config struct {
	DefaultK    int
	PoolFloor   int
	BoostPerHit float64
	BoostCap    float64
	MinTokenLen int
	StopWords   map[string]struct{}
	CacheSize   int
	CacheTTL    time.Duration
}

// DefaultConfig returns the standard retrieval configuration
func DefaultConfig() Config {
	return Config{
		DefaultK:    DefaultK,
		PoolFloor:   DefaultPoolFloor,
		BoostPerHit: DefaultBoostPerHit,
		BoostCap:    DefaultBoostCap,
		MinTokenLen: DefaultMinTokenLen,
		StopWords:   DefaultStopWords(),
		CacheSize:   DefaultCacheSize,
		CacheTTL:    DefaultCacheTTL,
	}
}

// normalize fills zero-valued fields with their defaults
func (c *Config) normalize() {
	if c.DefaultK <= 0 {
		c.DefaultK = DefaultK
	}
	if c.PoolFloor <= 0 {
		c.PoolFloor = DefaultPoolFloor
	}
	if c.BoostPerHit <= 0 {
		c.BoostPerHit = DefaultBoostPerHit
	}
	if c.BoostCap <= 0 {
		c.BoostCap = DefaultBoostCap
	}
	if c.MinTokenLen <= 0 {
		c.MinTokenLen = DefaultMinTokenLen
	}
	if c.StopWords == nil {
		c.StopWords = DefaultStopWords()
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}
