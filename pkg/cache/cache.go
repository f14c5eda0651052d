// Package cache provides the thread-safe TTL+LRU result cache that
// short-circuits the search pipeline for repeated queries.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/modootree/searchstream/pkg/aggregate"
	"github.com/modootree/searchstream/pkg/synth"
)

// Entry is one cached pipeline outcome. Items is set for catalog
// categories, Summary for free-form ones.
type Entry struct {
	Summary   string
	Items     []synth.StructuredItem
	Sources   []aggregate.Candidate
	Category  string
	CreatedAt time.Time
}

// Stats reports cache occupancy.
type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

type cacheItem struct {
	key   string
	entry Entry
}

// Cache is a mutex-guarded TTL+LRU cache keyed by normalized query.
// The front of the list is the most recently used item.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	ll      *list.List
	items   map[string]*list.Element

	now func() time.Time // test hook
}

// New creates a cache with the given entry TTL and maximum key count.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get returns the live entry for key, promoting it to most recently used.
// An entry whose TTL has elapsed is physically evicted on touch and
// reported as absent.
func (c *Cache) Get(key string) (Entry, bool) {
	k := normalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		return Entry{}, false
	}

	item := el.Value.(*cacheItem)
	if c.now().Sub(item.entry.CreatedAt) >= c.ttl {
		c.ll.Remove(el)
		delete(c.items, k)
		return Entry{}, false
	}

	c.ll.MoveToFront(el)
	return item.entry, true
}

// Set stores an entry under key, evicting the least recently used entry
// when inserting a new key at capacity. A zero CreatedAt is stamped with
// the current time.
func (c *Cache) Set(key string, e Entry) {
	k := normalizeKey(key)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[k]; ok {
		el.Value.(*cacheItem).entry = e
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.maxSize {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheItem).key)
		}
	}

	c.items[k] = c.ll.PushFront(&cacheItem{key: k, entry: e})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// Stats counts live and logically expired entries without evicting.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Total: len(c.items)}
	for _, el := range c.items {
		if c.now().Sub(el.Value.(*cacheItem).entry.CreatedAt) >= c.ttl {
			s.Expired++
		}
	}
	s.Valid = s.Total - s.Expired
	return s
}
