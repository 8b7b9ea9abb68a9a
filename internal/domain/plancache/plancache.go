// Package plancache memoizes plan results by request.
package plancache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/pkg/metrics"
)

// Cache remembers the result computed for a request.
type Cache interface {
	// Get returns the cached result for req, if any.
	Get(ctx context.Context, req model.Request) (model.Result, bool)

	// Put records res as the answer for req. Requests carrying NaN and
	// results the solver could not settle are never stored.
	Put(ctx context.Context, req model.Request, res model.Result)

	Size() int64
}

// inMemoryCache keeps entries in a map with FIFO eviction.
// For bounded mode (maxSize > 0): a ring of keys records insertion order.
// For unbounded mode (maxSize <= 0): plain map, nothing is evicted.
type inMemoryCache struct {
	mu      sync.RWMutex
	entries map[model.Request]model.Result
	order   []model.Request // ring of keys in insertion order (bounded mode)
	next    int             // slot the next insertion overwrites
	maxSize int
	size    atomic.Int64
}

// NewInMemoryCache creates a new in-memory plan cache.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[model.Request]model.Result)
	if c.maxSize > 0 {
		c.order = make([]model.Request, 0, c.maxSize)
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, req model.Request) (model.Result, bool) {
	if req.HasNaN() {
		metrics.RecordCacheMiss()
		return model.Result{}, false
	}

	c.mu.RLock()
	res, ok := c.entries[req]
	c.mu.RUnlock()

	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return res, ok
}

func (c *inMemoryCache) Put(_ context.Context, req model.Request, res model.Result) {
	if req.HasNaN() || !settled(res.SolverStatus) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[req]; exists {
		c.entries[req] = res
		return
	}

	if c.maxSize > 0 {
		if len(c.order) < c.maxSize {
			c.order = append(c.order, req)
		} else {
			delete(c.entries, c.order[c.next])
			c.order[c.next] = req
			c.size.Add(-1)
		}
		c.next = (c.next + 1) % c.maxSize
	}

	c.entries[req] = res
	c.size.Add(1)
	metrics.UpdateCacheSize(int(c.size.Load()))
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

// settled reports whether a solver status is a stable answer for its input.
func settled(s lp.Status) bool {
	switch s {
	case lp.StatusOptimal, lp.StatusInfeasible, lp.StatusUnbounded:
		return true
	default:
		return false
	}
}
