// Package cache provides a small in-memory TTL cache for store objects.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config holds cache settings.
type Config struct {
	// DefaultTTL is how long an item stays valid after Set.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired items are evicted in the background.
	CleanupInterval time.Duration
	// MaxItems caps the cache size; the least recently set item is evicted
	// when the cap is exceeded. Zero means unbounded.
	MaxItems int
	// OnEviction is called for each evicted item, if set.
	OnEviction func(key string, value any)
}

type item struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache.
type Cache struct {
	config Config

	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently set
	stopCh  chan struct{}
	stopped bool
}

// New creates a cache and starts its background cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	c := &Cache{
		config: config,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	it := el.Value.(*item)
	if time.Now().After(it.expiresAt) {
		c.removeLocked(el)
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}

	el := c.order.PushFront(&item{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.config.DefaultTTL),
	})
	c.items[key] = el

	if c.config.MaxItems > 0 {
		for len(c.items) > c.config.MaxItems {
			c.removeLocked(c.order.Back())
		}
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Len returns the number of cached items, including not-yet-evicted expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	it := el.Value.(*item)
	c.order.Remove(el)
	delete(c.items, it.key)
	if c.config.OnEviction != nil {
		c.config.OnEviction(it.key, it.value)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*item).expiresAt) {
			c.removeLocked(el)
		}
		el = prev
	}
}
