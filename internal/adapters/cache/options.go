package cache

// Option applies a configuration option to the PredictionCache.
type Option func(*PredictionCache)

// WithSize sets the maximum number of cached results. Zero or a negative
// size disables the cache.
func WithSize(size int) Option {
	return func(c *PredictionCache) {
		c.size = size
	}
}
