package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Velocidex/ttlcache/v2"
	"golang.org/x/sync/singleflight"

	"labelme/internal/observability"
	"labelme/internal/snowflake"
)

// DefaultTTL is how long a query result stays fresh
const DefaultTTL = 5 * time.Minute

// Loader runs the query behind a cache key
type Loader func(ctx context.Context) (*snowflake.Table, error)

// ResultCache holds one result set per query id. Entries expire after their
// TTL; reads do not extend it. There is no size bound.
type ResultCache struct {
	mu         sync.Mutex
	lru        *ttlcache.Cache
	ttl        time.Duration
	group      singleflight.Group
	generation uint64
	stats      Stats
	metrics    *observability.Metrics
	logger     *observability.Logger
}

// Stats tracks cache performance
type Stats struct {
	Hits   int64
	Misses int64
	Clears int64
}

// HitRate returns hits as a percentage of lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates a result cache. ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration, metrics *observability.Metrics, logger *observability.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = observability.GetDefaultLogger()
	}

	lru := ttlcache.NewCache()
	_ = lru.SetTTL(ttl)
	lru.SkipTTLExtensionOnHit(true)

	return &ResultCache{
		lru:     lru,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.WithField("component", "cache"),
	}
}

// TTL returns the default entry lifetime
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the live entry for id
func (c *ResultCache) Get(id string) (*snowflake.Table, bool) {
	table, ok := c.lookup(id)
	if ok {
		atomic.AddInt64(&c.stats.Hits, 1)
		c.metrics.RecordCacheHit(id)
	} else {
		atomic.AddInt64(&c.stats.Misses, 1)
		c.metrics.RecordCacheMiss(id)
	}
	return table, ok
}

func (c *ResultCache) lookup(id string) (*snowflake.Table, bool) {
	v, err := c.lru.Get(id)
	if err != nil {
		return nil, false
	}
	table, ok := v.(*snowflake.Table)
	return table, ok
}

// Put stores table under id, replacing any live entry. ttl <= 0 uses the
// cache default.
func (c *ResultCache) Put(id string, table *snowflake.Table, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.lru.SetWithTTL(id, table, ttl); err != nil {
		c.logger.WarnWithFields("Failed to cache result", map[string]interface{}{
			"query": id,
			"error": err.Error(),
		})
	}
}

// ClearAll drops every entry. The next access for each key loads again,
// including keys whose load is still in flight.
func (c *ResultCache) ClearAll() {
	c.mu.Lock()
	c.generation++
	entries := c.lru.Count()
	_ = c.lru.Purge()
	c.mu.Unlock()

	atomic.AddInt64(&c.stats.Clears, 1)
	c.metrics.RecordCacheClear()
	c.logger.InfoWithFields("Cache cleared", map[string]interface{}{
		"entries": entries,
	})
}

// Fetch returns the cached result for id, calling loader on a miss.
// Concurrent misses for the same id within one generation share a single
// load. The shared load is not cancelled with any one caller; each caller
// stops waiting when its own ctx is done. Failed loads are not cached.
func (c *ResultCache) Fetch(ctx context.Context, id string, loader Loader) (*snowflake.Table, error) {
	if table, ok := c.Get(id); ok {
		return table, nil
	}

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	flight := c.group.DoChan(flightKey(id, generation), func() (interface{}, error) {
		if table, ok := c.lookup(id); ok {
			return table, nil
		}

		table, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// A clear during the load invalidates its result.
		if generation == c.generation {
			c.Put(id, table, 0)
		}
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.DebugWithFields("Shared in-flight load", map[string]interface{}{"query": id})
		}
		return res.Val.(*snowflake.Table), nil
	}
}

func flightKey(id string, generation uint64) string {
	return fmt.Sprintf("%s#%d", id, generation)
}

// Len returns the number of live entries
func (c *ResultCache) Len() int {
	return c.lru.Count()
}

// Stats returns a snapshot of the counters
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.stats.Hits),
		Misses: atomic.LoadInt64(&c.stats.Misses),
		Clears: atomic.LoadInt64(&c.stats.Clears),
	}
}

// Close stops the expiry goroutine
func (c *ResultCache) Close() error {
	return c.lru.Close()
}
