package ledger

import (
	"context"
	"sync"
	"time"

	"server/pkg/clock"
)

// QuotaFetch returns the authoritative count of premium free sessions the
// account has used today.
type QuotaFetch func(ctx context.Context, accountID string) (int, error)

// QuotaCache is a read-through cache over the server-side premium quota
// count. Local increments are optimistic bookkeeping between fetches; the
// server value always wins on refresh, never the other way around.
type QuotaCache struct {
	fetch QuotaFetch
	ttl   time.Duration
	loc   *time.Location
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*quotaEntry
}

type quotaEntry struct {
	server     int
	optimistic int
	fetchedAt  time.Time
}

func NewQuotaCache(fetch QuotaFetch, ttl time.Duration, loc *time.Location, clk clock.Clock) *QuotaCache {
	return &QuotaCache{
		fetch:   fetch,
		ttl:     ttl,
		loc:     loc,
		clock:   clk,
		entries: make(map[string]*quotaEntry),
	}
}

// UsedToday returns the best-known count for today, refreshing from the
// server when the entry is stale or the local day has rolled over.
func (c *QuotaCache) UsedToday(ctx context.Context, accountID string) (int, error) {
	c.mu.Lock()
	e, ok := c.entries[accountID]
	now := c.clock.Now()
	stale := !ok || now.Sub(e.fetchedAt) >= c.ttl || !sameLocalDay(e.fetchedAt, now, c.loc)
	c.mu.Unlock()

	if stale {
		if err := c.Refresh(ctx, accountID); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e = c.entries[accountID]
	return e.server + e.optimistic, nil
}

// Refresh replaces the cached value with the authoritative count and drops
// any optimistic increments.
func (c *QuotaCache) Refresh(ctx context.Context, accountID string) error {
	count, err := c.fetch(ctx, accountID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[accountID] = &quotaEntry{server: count, fetchedAt: c.clock.Now()}
	return nil
}

// MarkUsed records an optimistic use until the next authoritative fetch.
func (c *QuotaCache) MarkUsed(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[accountID]; ok {
		e.optimistic++
	} else {
		c.entries[accountID] = &quotaEntry{optimistic: 1, fetchedAt: c.clock.Now()}
	}
}

// Unmark reverses one optimistic use after a failed action.
func (c *QuotaCache) Unmark(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[accountID]; ok && e.optimistic > 0 {
		e.optimistic--
	}
}
