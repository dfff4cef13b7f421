package metadata

import "testing"

func TestExtractHappyPath(t *testing.T) {
	r := Extract("Hi there")
	if r.Emotion != nil || r.Task != nil {
		t.Fatalf("expected no markers, got %+v", r)
	}
	if r.Cleaned != "Hi there" {
		t.Fatalf("cleaned = %q", r.Cleaned)
	}
}

func TestExtractEmotion(t *testing.T) {
	r := Extract(`I hear you. EMOTION_LOG: {"emotion":"sad","intensity":6}`)
	if r.Emotion == nil || r.Emotion.Emotion != "sad" {
		t.Fatalf("expected emotion sad, got %+v", r.Emotion)
	}
	if r.Emotion.Intensity == nil || *r.Emotion.Intensity != 6 {
		t.Fatalf("expected intensity 6, got %+v", r.Emotion.Intensity)
	}
	if r.Cleaned != "I hear you." {
		t.Fatalf("cleaned = %q", r.Cleaned)
	}
}

func TestExtractIntensityClamped(t *testing.T) {
	r := Extract(`EMOTION_LOG: {"emotion":"joy","intensity":99}`)
	if r.Emotion == nil || r.Emotion.Intensity == nil || *r.Emotion.Intensity != 10 {
		t.Fatalf("expected clamped intensity 10, got %+v", r.Emotion)
	}
}

func TestExtractIntensityDroppedWhenNonNumeric(t *testing.T) {
	r := Extract(`EMOTION_LOG: {"emotion":"joy","intensity":"high"}`)
	if r.Emotion == nil || r.Emotion.Intensity != nil {
		t.Fatalf("expected nil intensity, got %+v", r.Emotion)
	}
}

func TestExtractTask(t *testing.T) {
	r := Extract(`Sure. TASK_INFERENCE: {"taskType":"plan_day","parameters":{"priority":"focus"}}`)
	if r.Task == nil || r.Task.TaskType != "plan_day" {
		t.Fatalf("expected task plan_day, got %+v", r.Task)
	}
	if r.Task.Parameters["priority"] != "focus" {
		t.Fatalf("expected priority focus, got %+v", r.Task.Parameters)
	}
	if r.Cleaned != "Sure." {
		t.Fatalf("cleaned = %q", r.Cleaned)
	}
}

func TestExtractFirstWellFormedWins(t *testing.T) {
	r := Extract(`EMOTION_LOG: {"emotion":"a"} text EMOTION_LOG: {"emotion":"b"}`)
	if r.Emotion == nil || r.Emotion.Emotion != "a" {
		t.Fatalf("expected first emotion to win, got %+v", r.Emotion)
	}
	if ContainsMarkerLiteral(r.Cleaned) {
		t.Fatalf("cleaned text still contains a marker literal: %q", r.Cleaned)
	}
}

func TestExtractMalformedJSONStripped(t *testing.T) {
	r := Extract(`EMOTION_LOG: {"emotion": not valid json} trailing`)
	if r.Emotion != nil {
		t.Fatalf("expected no emotion from malformed json, got %+v", r.Emotion)
	}
	if ContainsMarkerLiteral(r.Cleaned) {
		t.Fatalf("marker literal leaked into cleaned text: %q", r.Cleaned)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	first := Extract(`Hi EMOTION_LOG: {"emotion":"calm"}`)
	second := Extract(first.Cleaned)
	if second.Emotion != nil {
		t.Fatalf("second pass should find no marker, got %+v", second.Emotion)
	}
	if second.Cleaned != first.Cleaned {
		t.Fatalf("idempotence violated: %q != %q", second.Cleaned, first.Cleaned)
	}
}

func TestExtractBlankRunsCollapsed(t *testing.T) {
	r := Extract("line one\n\n\n\n\nline two")
	if r.Cleaned != "line one\n\nline two" {
		t.Fatalf("cleaned = %q", r.Cleaned)
	}
}

func TestAdvanceFilteredHoldsBackMarkerSplitAcrossDeltas(t *testing.T) {
	sent := 0
	buf := "I hear you. EMOTIO"
	forwarded, sent := AdvanceFiltered(buf, sent)
	if ContainsMarkerLiteral(forwarded) {
		t.Fatalf("forwarded chunk leaked a marker fragment: %q", forwarded)
	}

	buf += `N_LOG: {"emotion":"joy"}`
	more, sent := AdvanceFiltered(buf, sent)
	forwarded += more
	if ContainsMarkerLiteral(forwarded) {
		t.Fatalf("forwarded text leaked a marker after the split literal completed: %q", forwarded)
	}

	final, _ := FlushFiltered(buf, sent)
	forwarded += final
	if forwarded != "I hear you. " {
		t.Fatalf("expected forwarded text %q, got %q", "I hear you. ", forwarded)
	}
}

func TestAdvanceFilteredHoldsBackOpenJSONPayload(t *testing.T) {
	sent := 0
	buf := `Sure. TASK_INFERENCE: {"taskType":"plan_day"`
	forwarded, sent := AdvanceFiltered(buf, sent)
	if ContainsMarkerLiteral(forwarded) {
		t.Fatalf("forwarded chunk leaked the marker token before its payload closed: %q", forwarded)
	}

	buf += `,"parameters":{}}`
	more, sent := AdvanceFiltered(buf, sent)
	forwarded += more

	final, _ := FlushFiltered(buf, sent)
	forwarded += final
	if forwarded != "Sure. " {
		t.Fatalf("expected forwarded text %q, got %q", "Sure. ", forwarded)
	}
}

func TestFlushFilteredReleasesShortTrailingText(t *testing.T) {
	forwarded, sent := AdvanceFiltered("Hi", 0)
	if forwarded != "" {
		t.Fatalf("expected nothing forwarded before the stream ends, got %q", forwarded)
	}
	final, newSent := FlushFiltered("Hi", sent)
	if final != "Hi" || newSent != 2 {
		t.Fatalf("expected final flush to release %q, got %q (sent=%d)", "Hi", final, newSent)
	}
}
