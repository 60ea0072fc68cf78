// Package pricecache holds the price caches used by the price service: an
// in-process TTL cache and an optional Redis store shared between instances.
package pricecache

import (
	"strings"
	"time"

	"vault_client/internal/app/port"

	"github.com/patrickmn/go-cache"
)

// MemoryCache is a symbol keyed TTL cache. Symbols are case-insensitive.
type MemoryCache struct {
	c *cache.Cache
}

var _ port.PriceCache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose entries expire after ttl.
// A zero ttl keeps entries until the process exits.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryCache{c: cache.New(ttl, cleanupInterval)}
}

func (m *MemoryCache) Get(symbol string) (float64, bool) {
	v, ok := m.c.Get(key(symbol))
	if !ok {
		return 0, false
	}
	price, ok := v.(float64)
	return price, ok
}

func (m *MemoryCache) Set(symbol string, price float64) {
	m.c.SetDefault(key(symbol), price)
}

// Len returns the number of cached symbols, expired ones included until cleanup.
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
