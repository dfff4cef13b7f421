// Package cache implements C3: a per-process, TTL-bounded mapping from user
// id to the profile/recent-memory pair the completion pipeline needs on
// every request, so a hot user doesn't round-trip to Postgres per turn.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Entry is the cached value for one user.
type Entry struct {
	Profile      map[string]string
	RecentMemory []*domain.MemoryMessage
	FetchedAt    time.Time
}

func (e *Entry) expired(ttl time.Duration) bool {
	return time.Since(e.FetchedAt) >= ttl
}

// Loader fetches a fresh Entry on a cache miss. Duplicate concurrent loads
// for the same key may both run — single-flight is a quality improvement,
// not a correctness requirement, per spec.md §4.3.
type Loader func(ctx context.Context, userID uuid.UUID) (*Entry, error)

// Stats is a snapshot of hit/miss/eviction counters, consumed by C11.
type Stats struct {
	Hits    int64
	Misses  int64
	Evicted int64
}

type Cache struct {
	ttl time.Duration
	log *logger.Logger

	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry

	hits, misses, evicted int64

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(ttl time.Duration, baseLog *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	c := &Cache{
		ttl:     ttl,
		log:     baseLog.With("component", "UserCache"),
		entries: make(map[uuid.UUID]*Entry),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the cached entry if present and fresh; otherwise it invokes
// load, stores the result, and returns it.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID, load Loader) (*Entry, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()

	if ok && !e.expired(c.ttl) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e, nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	fresh, err := load(ctx, userID)
	if err != nil {
		return nil, err
	}
	fresh.FetchedAt = time.Now()
	c.Set(userID, fresh)
	return fresh, nil
}

// Set overwrites the entry for userID unconditionally.
func (c *Cache) Set(userID uuid.UUID, e *Entry) {
	c.mu.Lock()
	c.entries[userID] = e
	c.mu.Unlock()
}

// Invalidate drops the entry for userID. The committer calls this after any
// write that changes profile or memory, narrowing the staleness window.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evicted: c.evicted}
}

// Close stops the background janitor. Safe to call once.
func (c *Cache) Close() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Cache) janitor() {
	defer close(c.doneCh)
	interval := c.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.expired(c.ttl) {
			delete(c.entries, id)
			c.evicted++
		}
	}
}
