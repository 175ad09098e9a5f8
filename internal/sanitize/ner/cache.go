package ner

import (
	"context"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

// Cache memoizes an EntityModel's predictions. Entries are keyed by a hash
// of (labels, threshold, text) and evicted first-in first-out once the
// cache holds more than size entries. Failed predictions are not cached.
type Cache struct {
	model sanitize.EntityModel
	size  int

	mu      sync.RWMutex
	entries map[string][]sanitize.Finding
	order   []string
}

// NewCache wraps model. A size <= 0 disables caching.
func NewCache(model sanitize.EntityModel, size int) *Cache {
	return &Cache{
		model:   model,
		size:    size,
		entries: make(map[string][]sanitize.Finding),
	}
}

// Predict implements sanitize.EntityModel.
func (c *Cache) Predict(ctx context.Context, text string, labels []string, threshold float64) ([]sanitize.Finding, error) {
	if c.size <= 0 {
		return c.model.Predict(ctx, text, labels, threshold)
	}

	key := cacheKey(text, labels, threshold)
	c.mu.RLock()
	hit, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(hit), nil
	}

	found, err := c.model.Predict(ctx, text, labels, threshold)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = slices.Clone(found)
		c.order = append(c.order, key)
		if len(c.order) > c.size {
			evict := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, evict)
		}
	}
	c.mu.Unlock()
	return found, nil
}

// Len returns the number of cached predictions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(text string, labels []string, threshold float64) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(strings.Join(labels, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(threshold, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
