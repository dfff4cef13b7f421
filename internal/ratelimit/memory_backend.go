package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// maxMemoryBuckets bounds the bucket map so an identity that's seen once and
// never again (a one-off client IP, say) doesn't sit in memory forever.
const maxMemoryBuckets = 50_000

type bucket struct {
	windowStart time.Time
	count       int64
	insertedAt  ulid.ULID
}

// MemoryBackend is the default, no-external-deps fixed-window counter map.
// insertOrder keeps insertion IDs sorted so eviction under maxMemoryBuckets
// always drops the oldest bucket first; ulid.ULID sorts lexically by the
// millisecond timestamp it embeds, so no separate clock bookkeeping is
// needed to find the oldest entry.
type MemoryBackend struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	insertOrder []ulid.ULID
	byInsertID  map[ulid.ULID]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets:    make(map[string]*bucket),
		byInsertID: make(map[ulid.ULID]string),
	}
}

func (b *MemoryBackend) Increment(_ context.Context, scope, identity string, window time.Duration) (int64, time.Duration, error) {
	key := scope + ":" + identity

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	bk, ok := b.buckets[key]
	if !ok || now.Sub(bk.windowStart) >= window {
		bk = &bucket{windowStart: now, count: 0, insertedAt: ulid.Make()}
		b.buckets[key] = bk
		b.insertOrder = append(b.insertOrder, bk.insertedAt)
		b.byInsertID[bk.insertedAt] = key
		b.evictOldestLocked()
	}
	bk.count++
	ttl := window - now.Sub(bk.windowStart)
	if ttl < 0 {
		ttl = 0
	}
	return bk.count, ttl, nil
}

func (b *MemoryBackend) evictOldestLocked() {
	for len(b.buckets) > maxMemoryBuckets && len(b.insertOrder) > 0 {
		oldest := b.insertOrder[0]
		b.insertOrder = b.insertOrder[1:]
		key, ok := b.byInsertID[oldest]
		delete(b.byInsertID, oldest)
		if !ok {
			continue
		}
		// A window rollover replaces the bucket for key with a fresh ulid;
		// only evict if oldest is still that bucket's current insertion id.
		if bk, ok := b.buckets[key]; ok && bk.insertedAt == oldest {
			delete(b.buckets, key)
		}
	}
}
