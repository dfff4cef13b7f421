package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestCacheLoadsOnMiss(t *testing.T) {
	c := New(50*time.Millisecond, newTestLogger(t))
	defer c.Close()

	userID := uuid.New()
	calls := 0
	load := func(ctx context.Context, id uuid.UUID) (*Entry, error) {
		calls++
		return &Entry{Profile: map[string]string{"name": "ada"}}, nil
	}

	e1, err := c.Get(context.Background(), userID, load)
	if err != nil {
		t.Fatal(err)
	}
	if e1.Profile["name"] != "ada" {
		t.Fatalf("unexpected profile %+v", e1.Profile)
	}

	e2, err := c.Get(context.Background(), userID, load)
	if err != nil {
		t.Fatal(err)
	}
	if e2 != e1 {
		t.Fatalf("expected cache hit to return same entry pointer")
	}
	if calls != 1 {
		t.Fatalf("expected loader called once, got %d", calls)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(time.Minute, newTestLogger(t))
	defer c.Close()

	userID := uuid.New()
	calls := 0
	load := func(ctx context.Context, id uuid.UUID) (*Entry, error) {
		calls++
		return &Entry{}, nil
	}

	_, _ = c.Get(context.Background(), userID, load)
	c.Invalidate(userID)
	_, _ = c.Get(context.Background(), userID, load)

	if calls != 2 {
		t.Fatalf("expected loader called twice after invalidate, got %d", calls)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := New(10*time.Millisecond, newTestLogger(t))
	defer c.Close()

	userID := uuid.New()
	calls := 0
	load := func(ctx context.Context, id uuid.UUID) (*Entry, error) {
		calls++
		return &Entry{}, nil
	}

	_, _ = c.Get(context.Background(), userID, load)
	time.Sleep(30 * time.Millisecond)
	_, _ = c.Get(context.Background(), userID, load)

	if calls != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", calls)
	}
}
