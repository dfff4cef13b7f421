package commit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/cache"
	"github.com/yungbote/neurobridge-backend/internal/completion/metadata"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type fakeMemoryRepo struct {
	mu    sync.Mutex
	pairs int
}

func (f *fakeMemoryRepo) CreatePair(dbc dbctx.Context, userID uuid.UUID, userContent, assistantContent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs++
	return nil
}
func (f *fakeMemoryRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.MemoryMessage, error) {
	return nil, nil
}
func (f *fakeMemoryRepo) PurgeOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeEmotionRepo struct {
	mu      sync.Mutex
	created []*domain.EmotionEntry
}

func (f *fakeEmotionRepo) Create(dbc dbctx.Context, e *domain.EmotionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, e)
	return nil
}
func (f *fakeEmotionRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.EmotionEntry, error) {
	return nil, nil
}

type fakeTaskRepo struct {
	mu      sync.Mutex
	created []*domain.Task
}

func (f *fakeTaskRepo) Create(dbc dbctx.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return nil
}
func (f *fakeTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Task, error) { return nil, nil }
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

func TestCommitAppliesAllThreeSideEffects(t *testing.T) {
	memRepo := &fakeMemoryRepo{}
	emoRepo := &fakeEmotionRepo{}
	taskRepo := &fakeTaskRepo{}
	userCache := cache.New(time.Minute, newTestLogger(t))
	defer userCache.Close()

	intensity := 6
	c := New(memRepo, emoRepo, taskRepo, userCache, newTestLogger(t))

	userID := uuid.New()
	c.Commit(context.Background(), Input{
		UserID:           userID,
		UserPrompt:       "hello",
		AssistantContent: "hi there",
		Emotion:          &metadata.Emotion{Emotion: "sad", Intensity: &intensity},
		Task:             &metadata.Task{TaskType: "plan_day", Parameters: map[string]any{"priority": "focus"}},
	})

	if memRepo.pairs != 1 {
		t.Fatalf("expected 1 memory pair commit, got %d", memRepo.pairs)
	}
	if len(emoRepo.created) != 1 {
		t.Fatalf("expected 1 emotion entry, got %d", len(emoRepo.created))
	}
	if len(taskRepo.created) != 1 {
		t.Fatalf("expected 1 task, got %d", len(taskRepo.created))
	}
}
