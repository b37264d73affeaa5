package services

import (
	"fmt"
	"sync"
	"time"
)

// SearchCache is an in-process TTL cache for flight search results.
//
// Entries are keyed by the full search parameters so the API handlers and
// the monitor share results within the freshness window. Expired entries
// are evicted lazily on read and in bulk via Purge.
type SearchCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	offers    []FlightOffer
	expiresAt time.Time
}

// NewSearchCache creates a cache whose entries expire after ttl.
func NewSearchCache(ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SearchCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Key builds the cache key for a search. Every parameter that changes the
// result set is part of the key, so a 3-adult search never reads a 1-adult
// entry and a capped search never reads a larger sheet.
func (c *SearchCache) Key(params SearchParams) string {
	adults := params.Adults
	if adults <= 0 {
		adults = 1
	}

	key := fmt.Sprintf("%s:%s:%s", params.Origin, params.Destination, params.Departure.Format("2006-01-02"))
	if params.Return != nil {
		key += ":" + params.Return.Format("2006-01-02")
	}
	if params.Currency != "" {
		key += ":" + params.Currency
	}
	key += fmt.Sprintf(":a%d:m%d", adults, params.MaxResults)
	return key
}

// Get returns cached offers for the search, or false when absent or stale.
func (c *SearchCache) Get(params SearchParams) ([]FlightOffer, bool) {
	key := c.Key(params)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.offers, true
}

// Put stores offers for the search.
func (c *SearchCache) Put(params SearchParams, offers []FlightOffer) {
	key := c.Key(params)

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		offers:    offers,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Purge removes all expired entries and returns how many were evicted.
func (c *SearchCache) Purge() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries currently held, including stale ones.
func (c *SearchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
