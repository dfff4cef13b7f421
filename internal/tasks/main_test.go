package tasks

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the fallback poller's ticker goroutine exits when its
// context is canceled and never leaks across test cases.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
