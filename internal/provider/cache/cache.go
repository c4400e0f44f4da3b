package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketquotes/internal/provider"
)

type entry struct {
	expiresAt time.Time
	batch     *provider.Batch
}

// defaultFetchTimeout bounds a shared upstream call when FetchTimeout is unset.
const defaultFetchTimeout = 30 * time.Second

// Source caches whole batches for a TTL, keyed by the requested symbol list.
// Concurrent misses for the same key share one upstream call. The shared call
// is detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done. When the upstream fails and an expired batch is
// still held, the stale batch is served instead of the error.
type Source struct {
	P            provider.Source
	TTL          time.Duration
	FetchTimeout time.Duration

	mu    sync.RWMutex
	items map[string]entry
	sf    singleflight.Group
	now   func() time.Time
}

func (c *Source) Name() string { return c.P.Name() }

func (c *Source) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	if c.TTL <= 0 {
		return c.P.Fetch(ctx, symbols)
	}

	key := strings.Join(symbols, "\x00")
	now := c.clock()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.batch, nil
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout())
		defer cancel()
		b, err := c.P.Fetch(fctx, symbols)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.items == nil {
			c.items = make(map[string]entry)
		}
		c.items[key] = entry{expiresAt: c.clock().Add(c.TTL), batch: b}
		c.mu.Unlock()
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if ok {
				return e.batch, nil
			}
			return nil, res.Err
		}
		return res.Val.(*provider.Batch), nil
	}
}

func (c *Source) fetchTimeout() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout
	}
	return defaultFetchTimeout
}

func (c *Source) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
