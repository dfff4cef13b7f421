package tasks

import (
	"context"
	"testing"
	"time"
)

func TestPoller_StopsOnContextCancel(t *testing.T) {
	repo := newFakeTaskRepo()
	r := NewRunner(repo, testLogger(t))
	p := NewPoller(r, 5*time.Millisecond, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
