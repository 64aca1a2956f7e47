package query

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// TTLProgramCache is a ProgramCache whose entries expire after a fixed TTL
// and, when a capacity is set, are evicted least recently used first.
type TTLProgramCache struct {
	cache *ttlcache.Cache[string, any]
	once  sync.Once
}

// NewTTLProgramCache starts a cache. A zero ttl keeps entries until evicted;
// a zero capacity leaves the cache unbounded. Call Close to stop the expiry
// goroutine.
func NewTTLProgramCache(ttl time.Duration, capacity uint64) *TTLProgramCache {
	opts := []ttlcache.Option[string, any]{
		ttlcache.WithTTL[string, any](ttl),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, any](capacity))
	}
	cache := ttlcache.New(opts...)
	go cache.Start()
	return &TTLProgramCache{cache: cache}
}

func (c *TTLProgramCache) Get(key string) (any, bool) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *TTLProgramCache) Set(key string, value any) {
	c.cache.Set(key, value, ttlcache.DefaultTTL)
}

// Len reports the number of live entries.
func (c *TTLProgramCache) Len() int {
	return c.cache.Len()
}

// Close stops the expiry goroutine. It is safe to call more than once.
func (c *TTLProgramCache) Close() {
	c.once.Do(c.cache.Stop)
}
