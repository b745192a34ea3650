package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nuitsjp/teams-board/internal/domain/board"
)

// CachedSource wraps an IndexSource with a short TTL cache and collapses
// concurrent fetches into one upstream request. It serves the read side of
// the dashboard only: the write sequencer must always see the latest index
// and bypasses this layer entirely.
type CachedSource struct {
	upstream IndexSource
	ttl      time.Duration
	flight   singleflight.Group

	mu        sync.Mutex
	cached    *board.Index
	fetchedAt time.Time
}

// NewCachedSource creates a caching fetcher. A non-positive ttl disables the
// cache while keeping the in-flight dedup.
func NewCachedSource(upstream IndexSource, ttl time.Duration) *CachedSource {
	return &CachedSource{upstream: upstream, ttl: ttl}
}

// Fetch returns the cached index when fresh, otherwise fetches upstream.
func (c *CachedSource) Fetch(ctx context.Context) (*board.Index, error) {
	c.mu.Lock()
	if c.cached != nil && c.ttl > 0 && time.Since(c.fetchedAt) < c.ttl {
		idx := c.cached
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do("index", func() (any, error) {
		idx, err := c.upstream.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = idx
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*board.Index), nil
}

// Invalidate drops the cached index. Called after every successful write so
// readers observe their own edits immediately.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
