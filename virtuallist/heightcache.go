package virtuallist

import (
	"strconv"
	"sync"
)

// HeightCache memoizes measured row heights by item identity. Items without
// an ID are keyed by position. Lookups for unmeasured rows return the
// default height.
type HeightCache[T any] struct {
	mu            sync.RWMutex
	heights       map[string]float64
	defaultHeight float64
}

// NewHeightCache creates an empty cache. A non-positive defaultHeight falls
// back to DefaultItemHeight.
func NewHeightCache[T any](defaultHeight float64) *HeightCache[T] {
	if defaultHeight <= 0 {
		defaultHeight = DefaultItemHeight
	}
	return &HeightCache[T]{
		heights:       make(map[string]float64),
		defaultHeight: defaultHeight,
	}
}

// Height satisfies HeightFunc.
func (c *HeightCache[T]) Height(item T, index int) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h, ok := c.heights[cacheKey(item, index)]; ok {
		return h
	}
	return c.defaultHeight
}

// Set records the measured height of item.
func (c *HeightCache[T]) Set(item T, index int, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heights[cacheKey(item, index)] = height
}

// Len returns the number of measured rows.
func (c *HeightCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.heights)
}

// Clear drops every measurement.
func (c *HeightCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.heights)
}

func cacheKey[T any](item T, index int) string {
	if id, ok := any(item).(Identifier); ok {
		if s := id.ID(); s != "" {
			return "id:" + s
		}
	}
	return "idx:" + strconv.Itoa(index)
}
