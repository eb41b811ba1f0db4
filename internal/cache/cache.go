// Package cache is the in-process cache shared by the favicon and sitemap
// paths. It is a thin wrapper over ristretto sized in bytes.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache stores byte values with a TTL. It is safe for concurrent use.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache whose values total at most maxCostBytes.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	return c.c.Get(key)
}

// Set stores value for ttl. Writes are buffered; a Get right after Set may
// miss until the buffer drains (see Wait).
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
}

func (c *Cache) Delete(key string) {
	c.c.Del(key)
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	c.c.Wait()
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
