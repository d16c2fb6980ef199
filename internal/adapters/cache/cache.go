// Package cache memoises prediction results.
//
// Entries are keyed by model version and the record's canonical JSON form,
// so they stay valid for as long as the model they were computed with.
package cache

import (
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/prediction"
	"github.com/okian/attrition/pkg/metrics"
)

const defaultSize = 1024

// PredictionCache is a bounded LRU of prediction results. A cache created
// with size zero is disabled: lookups miss and additions are ignored.
type PredictionCache struct {
	size    int
	entries *lru.Cache[string, prediction.Result]
}

// NewPredictionCache creates a cache with configuration options.
func NewPredictionCache(opts ...Option) (*PredictionCache, error) {
	c := &PredictionCache{size: defaultSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.size <= 0 {
		c.size = 0
		return c, nil
	}

	entries, err := lru.New[string, prediction.Result](c.size)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Enabled reports whether the cache stores anything.
func (c *PredictionCache) Enabled() bool {
	return c != nil && c.entries != nil
}

// Key returns the cache key of a record scored by the given model version.
// Records that differ only in key order share a key. ok is false when the
// record cannot be encoded.
func Key(version string, r employee.Record) (key string, ok bool) {
	// json.Marshal writes map keys in sorted order
	data, err := json.Marshal(r)
	if err != nil {
		return "", false
	}
	return version + "\x00" + string(data), true
}

// Get returns the cached result for key.
func (c *PredictionCache) Get(key string) (prediction.Result, bool) {
	if !c.Enabled() {
		return prediction.Result{}, false
	}
	res, ok := c.entries.Get(key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return res, ok
}

// Add stores res under key, evicting the least recently used entry when full.
func (c *PredictionCache) Add(key string, res prediction.Result) {
	if !c.Enabled() {
		return
	}
	c.entries.Add(key, res)
}

// Len returns the number of cached results.
func (c *PredictionCache) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.entries.Len()
}

// Size returns the configured capacity.
func (c *PredictionCache) Size() int {
	if c == nil {
		return 0
	}
	return c.size
}

// Purge drops every entry.
func (c *PredictionCache) Purge() {
	if c.Enabled() {
		c.entries.Purge()
	}
}
