package cache

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the cache's janitor goroutine is always stopped by
// Close and never leaks across test cases.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
