package store

import (
	"context"
	"sync"
	"time"

	"github.com/nacionrock/album-votes/poll"
)

// DefaultTTL is the lifetime of a cached table, short enough that other
// voters' changes show up on the next page load.
const DefaultTTL = 5 * time.Second

// Cache holds a short-lived copy of a table shared by all sessions. It wraps
// any Store and is itself a Store. Failed loads are never cached and every
// table handed out is a copy.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	table   *poll.Table
	expires time.Time
}

func NewCache(s Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		store: s,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Load returns the cached table if it has not expired, otherwise it loads the
// table from the underlying store.
func (c *Cache) Load(ctx context.Context) (poll.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && c.now().Before(c.expires) {
		return c.table.Clone(), nil
	}

	c.table = nil

	table, err := c.store.Load(ctx)
	if err != nil {
		return table, err
	}

	cached := table.Clone()
	c.table = &cached
	c.expires = c.now().Add(c.ttl)

	return table, nil
}

// Save writes through to the underlying store and invalidates the cached copy,
// whether or not the write succeeded.
func (c *Cache) Save(ctx context.Context, table poll.Table) error {
	defer c.Invalidate()

	return c.store.Save(ctx, table)
}

// Reload invalidates the cached copy and loads the table from the underlying
// store.
func (c *Cache) Reload(ctx context.Context) (poll.Table, error) {
	c.Invalidate()

	return c.Load(ctx)
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.table = nil
	c.expires = time.Time{}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}
