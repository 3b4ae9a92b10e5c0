package engine

import (
	"sync"
	"time"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/source"
)

// Key identifies one memoized pass. Cutoff is the last hour a synthesized
// day view may fill, so a day view of today is recomputed every hour.
type Key struct {
	Selection source.Selection
	Period    models.Period
	Date      string
	Cutoff    int
}

// Cache memoizes pass results by Key. Every invalidation advances a
// generation counter; Put drops results of passes that started before the
// latest invalidation, so a stale pass never overwrites fresher data.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]V
	gen     uint64
}

// NewCache creates an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[Key]V)}
}

// Generation returns the token a pass must hand to Put.
func (c *Cache[V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Get returns the memoized value for key.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores v unless the cache was invalidated after gen was taken. It
// reports whether v was stored.
func (c *Cache[V]) Put(key Key, gen uint64, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.entries[key] = v
	return true
}

// Invalidate drops one entry.
func (c *Cache[V]) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.gen++
}

// InvalidateSource drops every entry that may include src's data for date:
// entries whose selection can resolve to src and whose current or previous
// window covers date. It returns the number of entries dropped.
func (c *Cache[V]) InvalidateSource(src models.Source, date time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := 0
	for key := range c.entries {
		if !selects(key.Selection, src) || !covers(key, date) {
			continue
		}
		delete(c.entries, key)
		n++
	}
	return n
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.gen++
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func selects(sel source.Selection, src models.Source) bool {
	p, ok := sel.Provider()
	return !ok || p == src
}

// covers reports whether date falls in the key's window or the window
// before it, which feeds the trend comparison.
func covers(key Key, date time.Time) bool {
	anchor, err := time.ParseInLocation(models.DateLayout, key.Date, date.Location())
	if err != nil {
		return true
	}
	start, _ := key.Period.Window(key.Period.Previous(anchor))
	_, end := key.Period.Window(anchor)
	return !date.Before(start) && date.Before(end)
}
