// internal/cache/lru.go
//
// Small LRU cache holding live form instances, keyed by their CSRF token.
// Safe for concurrent use.  An optional eviction hook lets callers keep
// gauges in step with the contents.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a non‑generic least‑recently‑used cache.
// Keys must be comparable; values can be any.
type LRU struct {
	mu      sync.Mutex
	cap     int
	ll      *list.List
	dict    map[any]*list.Element
	onEvict func(key, val any)
}

type pair struct {
	key any
	val any
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New(capacity int) *LRU {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[any]*list.Element, capacity),
	}
}

// OnEvict registers fn to run whenever an entry leaves the cache, whether
// pushed out by capacity or removed explicitly.  fn runs with the lock held
// and must not call back into the cache.
func (c *LRU) OnEvict(fn func(key, val any)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value or nil and marks it MRU.
func (c *LRU) Get(key any) (val any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair).val, true
	}
	return nil, false
}

// Add inserts or updates a value.
func (c *LRU) Add(key, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair{key, val}
		c.ll.MoveToFront(ele)
		return
	}
	ele := c.ll.PushFront(pair{key, val})
	c.dict[key] = ele
	if c.ll.Len() > c.cap {
		c.removeElement(c.ll.Back())
	}
}

// Remove drops key if present and reports whether it was.
func (c *LRU) Remove(key any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, hit := c.dict[key]
	if !hit {
		return false
	}
	c.removeElement(ele)
	return true
}

func (c *LRU) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	p := ele.Value.(pair)
	delete(c.dict, p.key)
	if c.onEvict != nil {
		c.onEvict(p.key, p.val)
	}
}

// Len reports current size.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
