package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type fakeTaskRepo struct {
	mu      sync.Mutex
	due     []*domain.Task
	claims  map[uuid.UUID]bool
	finish  map[uuid.UUID]string
	created []*domain.Task
}

func newFakeTaskRepo(due ...*domain.Task) *fakeTaskRepo {
	return &fakeTaskRepo{due: due, claims: map[uuid.UUID]bool{}, finish: map[uuid.UUID]string{}}
}

func (f *fakeTaskRepo) Create(dbc dbctx.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Task, error) {
	for _, t := range f.due {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskRepo) DequeueBatch(dbc dbctx.Context, limit int) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > 0 && limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeTaskRepo) ClaimProcessing(dbc dbctx.Context, id uuid.UUID, priorVersion int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims[id] {
		return false, nil
	}
	f.claims[id] = true
	return true, nil
}

func (f *fakeTaskRepo) Finish(dbc dbctx.Context, id uuid.UUID, status, result string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finish[id] = status
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestDrainOnce_UnknownTaskTypeFails(t *testing.T) {
	task := &domain.Task{ID: uuid.New(), TaskType: "plan_day", Status: domain.TaskStatusQueued}
	repo := newFakeTaskRepo(task)
	r := NewRunner(repo, testLogger(t))

	res, err := r.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if res.Dequeued != 1 || res.Failed != 1 || res.Completed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.finish[task.ID] != domain.TaskStatusFailed {
		t.Fatalf("expected task failed, got %q", repo.finish[task.ID])
	}
}

func TestDrainOnce_RegisteredHandlerCompletes(t *testing.T) {
	task := &domain.Task{ID: uuid.New(), TaskType: "plan_day", Status: domain.TaskStatusQueued}
	repo := newFakeTaskRepo(task)
	r := NewRunner(repo, testLogger(t))
	r.Register("plan_day", func(ctx context.Context, t *domain.Task) (string, error) {
		return "planned", nil
	})

	res, err := r.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if res.Completed != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.finish[task.ID] != domain.TaskStatusCompleted {
		t.Fatalf("expected task completed, got %q", repo.finish[task.ID])
	}
}

func TestDrainOnce_HandlerErrorFailsTask(t *testing.T) {
	task := &domain.Task{ID: uuid.New(), TaskType: "plan_day", Status: domain.TaskStatusQueued}
	repo := newFakeTaskRepo(task)
	r := NewRunner(repo, testLogger(t))
	r.Register("plan_day", func(ctx context.Context, t *domain.Task) (string, error) {
		return "", errors.New("boom")
	})

	res, err := r.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.finish[task.ID] != domain.TaskStatusFailed {
		t.Fatalf("expected failed status, got %q", repo.finish[task.ID])
	}
}

func TestDrainOnce_AlreadyClaimedIsSkipped(t *testing.T) {
	task := &domain.Task{ID: uuid.New(), TaskType: "plan_day", Status: domain.TaskStatusQueued}
	repo := newFakeTaskRepo(task)
	repo.claims[task.ID] = true // another worker already owns this row

	r := NewRunner(repo, testLogger(t))
	r.Register("plan_day", func(ctx context.Context, t *domain.Task) (string, error) {
		return "planned", nil
	})

	res, err := r.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if res.Skipped != 1 || res.Completed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSubmit_CreatesQueuedTask(t *testing.T) {
	repo := newFakeTaskRepo()
	r := NewRunner(repo, testLogger(t))

	task, err := r.Submit(context.Background(), uuid.New(), "plan_day", map[string]any{"priority": "focus"}, 0, time.Time{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if task.Status != domain.TaskStatusQueued {
		t.Fatalf("expected queued status, got %q", task.Status)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created task, got %d", len(repo.created))
	}
}
