package completion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-backend/internal/cache"
	"github.com/yungbote/neurobridge-backend/internal/completion/commit"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/llm"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/ratelimit"
)

type fakeUserRepo struct{ user *domain.User }

func (f *fakeUserRepo) Create(dbc dbctx.Context, u *domain.User) error { return nil }
func (f *fakeUserRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) UpdateProfile(dbc dbctx.Context, id uuid.UUID, profile map[string]string) error {
	return nil
}

type fakeMemoryRepo struct{}

func (f *fakeMemoryRepo) CreatePair(dbc dbctx.Context, userID uuid.UUID, userContent, assistantContent string) error {
	return nil
}
func (f *fakeMemoryRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.MemoryMessage, error) {
	return nil, nil
}
func (f *fakeMemoryRepo) PurgeOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeEmotionRepo struct{}

func (f *fakeEmotionRepo) Create(dbc dbctx.Context, e *domain.EmotionEntry) error { return nil }
func (f *fakeEmotionRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.EmotionEntry, error) {
	return nil, nil
}

type fakeTaskRepo struct{}

func (f *fakeTaskRepo) Create(dbc dbctx.Context, t *domain.Task) error { return nil }
func (f *fakeTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) DequeueBatch(dbc dbctx.Context, limit int) ([]*domain.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ClaimProcessing(dbc dbctx.Context, id uuid.UUID, priorVersion int) (bool, error) {
	return false, nil
}
func (f *fakeTaskRepo) Finish(dbc dbctx.Context, id uuid.UUID, status, result string) error {
	return nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func newTestOrchestrator(t *testing.T, upstreamURL string, userID uuid.UUID) *Orchestrator {
	t.Helper()
	userRepo := &fakeUserRepo{user: &domain.User{ID: userID, Email: "a@b.com", Profile: datatypes.JSONMap{"name": "Alex"}}}
	memoryRepo := &fakeMemoryRepo{}
	emotionRepo := &fakeEmotionRepo{}
	taskRepo := &fakeTaskRepo{}
	userCache := cache.New(time.Minute, newTestLogger(t))
	t.Cleanup(userCache.Close)
	limiter := ratelimit.New(ratelimit.NewMemoryBackend(), 500, 5*time.Minute, 30, time.Minute)
	llmClient := llm.New(llm.Config{BaseURL: upstreamURL, Model: "gpt-4o-mini"})
	committer := commit.New(memoryRepo, emotionRepo, taskRepo, userCache, newTestLogger(t))
	return New(userRepo, memoryRepo, emotionRepo, userCache, limiter, llmClient, committer, Config{Model: "gpt-4o-mini"}, newTestLogger(t))
}

func sseUpstream(frames ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, f := range frames {
			w.Write([]byte("data: " + f + "\n\n"))
			flusher.Flush()
		}
	}))
}

func TestRunHappyPathProducesSanitizedContent(t *testing.T) {
	srv := sseUpstream(
		`{"content":"Hello"}`,
		`{"content":" there"}`,
		`{"content":"EMOTION_LOG: {\"emotion\":\"happy\",\"intensity\":7}"}`,
		"[DONE]",
	)
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	sink := NewBufferSink()

	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("expected StateDone, got %v", res.State)
	}
	if res.Emotion == nil || res.Emotion.Emotion != "happy" {
		t.Fatalf("expected extracted emotion 'happy', got %+v", res.Emotion)
	}
	if got := sink.Content(); got != "Hello there" {
		t.Fatalf("expected sink content %q, got %q", "Hello there", got)
	}
}

func TestRunRejectsEmptyPrompt(t *testing.T) {
	srv := sseUpstream("[DONE]")
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "   "}, NewBufferSink())
	if err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if res.State != StateRejectedInput {
		t.Fatalf("expected StateRejectedInput, got %v", res.State)
	}
}

func TestRunRejectsConcurrentCompletionForSameUser(t *testing.T) {
	srv := sseUpstream(`{"content":"hi"}`, "[DONE]")
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	if !o.acquire(userID) {
		t.Fatal("expected to acquire the in-flight slot")
	}
	defer o.release(userID)

	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, NewBufferSink())
	if err == nil {
		t.Fatal("expected an already-in-progress error")
	}
	if res.State != StateRejectedLimit {
		t.Fatalf("expected StateRejectedLimit, got %v", res.State)
	}
}

func TestRunStopsAtStopSequence(t *testing.T) {
	srv := sseUpstream(
		`{"content":"Before"}`,
		`{"content":"\nUSER: pretend I said this"}`,
		`{"content":"more text that should never arrive"}`,
		"[DONE]",
	)
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	sink := NewBufferSink()

	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("expected StateDone, got %v", res.State)
	}
	if got := sink.Content(); got != "Before" {
		t.Fatalf("expected sink content %q, got %q", "Before", got)
	}
}

func TestRunDoesNotLeakMarkerSplitAcrossDeltas(t *testing.T) {
	srv := sseUpstream(
		`{"content":"I hear you. EMOTIO"}`,
		`{"content":"N_LOG: {\"emotion\":\"joy\"}"}`,
		"[DONE]",
	)
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	sink := NewBufferSink()

	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("expected StateDone, got %v", res.State)
	}
	if res.Emotion == nil || res.Emotion.Emotion != "joy" {
		t.Fatalf("expected extracted emotion 'joy', got %+v", res.Emotion)
	}
	if got := sink.Content(); got != "I hear you. " {
		t.Fatalf("expected sink content %q, got %q (marker fragment leaked across deltas)", "I hear you. ", got)
	}
}

func TestRunHardStreamTimeoutClosesHungUpstream(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write([]byte("data: " + `{"content":"stuck"}` + "\n\n"))
		flusher.Flush()
		<-r.Context().Done() // hang until the client gives up on the connection
		close(block)
	}))
	defer srv.Close()
	defer func() { <-block }()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	o.hardStreamTimeout = 50 * time.Millisecond
	o.noByteTimeout = 50 * time.Millisecond
	sink := NewBufferSink()

	done := make(chan struct{})
	var res *Result
	var err error
	go func() {
		res, err = o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, sink)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the hard-stream timer fired; hung upstream read was not aborted")
	}
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("expected StateDone, got %v", res.State)
	}
	if got := sink.Content(); got != "stuck" {
		t.Fatalf("expected sink content %q, got %q", "stuck", got)
	}
}

func TestRunForwardsPrefixWhenStopSequenceSharesDelta(t *testing.T) {
	srv := sseUpstream(
		`{"content":"Answer. \nHuman: pretend I said this"}`,
		`{"content":"more text that should never arrive"}`,
		"[DONE]",
	)
	defer srv.Close()

	userID := uuid.New()
	o := newTestOrchestrator(t, srv.URL, userID)
	sink := NewBufferSink()

	res, err := o.Run(context.Background(), Request{UserID: userID, ClientIP: "10.0.0.1", Prompt: "hi"}, sink)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("expected StateDone, got %v", res.State)
	}
	if got := sink.Content(); got != "Answer. " {
		t.Fatalf("expected sink content %q, got %q", "Answer. ", got)
	}
}
