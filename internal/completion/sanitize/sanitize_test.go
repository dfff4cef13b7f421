package sanitize

import "testing"

func TestSanitizePassesCleanText(t *testing.T) {
	if got := Sanitize("Hi there"); got != "Hi there" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeStripsRolePrefix(t *testing.T) {
	got := Sanitize("Assistant: here's your answer")
	if got != "here's your answer" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeEmptyFallsBackToApology(t *testing.T) {
	if got := Sanitize("   "); got != FallbackText {
		t.Fatalf("got %q", got)
	}
	if got := Sanitize(""); got != FallbackText {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeStripsResidualMarker(t *testing.T) {
	got := Sanitize(`Fine. EMOTION_LOG: {"emotion":"x"}`)
	if got != "Fine." {
		t.Fatalf("got %q", got)
	}
}
