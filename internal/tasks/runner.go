// Package tasks drains the queued-task backlog created by completion-time
// TASK_INFERENCE markers (and by any direct task submission). Draining is
// exposed two ways: synchronously from the GET /run-tasks handler, and on a
// schedule from either a Temporal worker (workflow.go) or a local poller
// (poller.go) when no Temporal server is configured.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Handler executes one task's Parameters and returns a short human-readable
// result string, or an error if the task type is known but execution failed.
type Handler func(ctx context.Context, t *domain.Task) (string, error)

// Runner dequeues up to BatchSize queued, due tasks and drives each one
// through the queued -> processing -> completed/failed lifecycle defined by
// the task-runner's compare-and-set contract.
type Runner struct {
	log       *logger.Logger
	tasks     gateway.TaskRepo
	handlers  map[string]Handler
	batchSize int

	onRun func(taskType, status string, dur time.Duration)
}

func NewRunner(tasks gateway.TaskRepo, baseLog *logger.Logger) *Runner {
	return &Runner{
		log:       baseLog.With("component", "TaskRunner"),
		tasks:     tasks,
		handlers:  make(map[string]Handler),
		batchSize: 10,
	}
}

func (r *Runner) WithBatchSize(n int) *Runner {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// OnRun registers an observer invoked after each task finishes, for metrics.
func (r *Runner) OnRun(fn func(taskType, status string, dur time.Duration)) *Runner {
	r.onRun = fn
	return r
}

// Register wires a handler for a task type. Task types with no registered
// handler transition straight to failed when dequeued.
func (r *Runner) Register(taskType string, h Handler) *Runner {
	r.handlers[taskType] = h
	return r
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Dequeued  int
	Completed int
	Failed    int
	Skipped   int // claimed by another worker between dequeue and claim
}

// DrainOnce dequeues up to the configured batch size and runs each task to
// completion. It never returns an error for individual task failures; those
// are recorded on the task row. It returns an error only if dequeue itself
// fails.
func (r *Runner) DrainOnce(ctx context.Context) (DrainResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	due, err := r.tasks.DequeueBatch(dbc, r.batchSize)
	if err != nil {
		return DrainResult{}, fmt.Errorf("tasks: dequeue batch: %w", err)
	}

	var res DrainResult
	res.Dequeued = len(due)
	for _, t := range due {
		status, claimed := r.runOne(ctx, t)
		if !claimed {
			res.Skipped++
			continue
		}
		if status == domain.TaskStatusCompleted {
			res.Completed++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

func (r *Runner) runOne(ctx context.Context, t *domain.Task) (status string, claimed bool) {
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := r.tasks.ClaimProcessing(dbc, t.ID, t.Version)
	if err != nil {
		r.log.Error("claim processing failed", "task_id", t.ID.String(), "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	start := time.Now()
	status, result := r.execute(ctx, t)
	dur := time.Since(start)

	if err := r.tasks.Finish(dbc, t.ID, status, result); err != nil {
		r.log.Error("finish task failed", "task_id", t.ID.String(), "error", err)
	}
	if r.onRun != nil {
		r.onRun(t.TaskType, status, dur)
	}
	r.log.Info("task drained", "task_id", t.ID.String(), "task_type", t.TaskType, "status", status, "duration_ms", dur.Milliseconds())
	return status, true
}

func (r *Runner) execute(ctx context.Context, t *domain.Task) (status, result string) {
	h, ok := r.handlers[t.TaskType]
	if !ok {
		return domain.TaskStatusFailed, fmt.Sprintf("unknown task type %q", t.TaskType)
	}
	out, err := h(ctx, t)
	if err != nil {
		return domain.TaskStatusFailed, err.Error()
	}
	return domain.TaskStatusCompleted, out
}

// Submit creates a new queued task, used by /completion TASK_INFERENCE
// commits and by any future direct-submission endpoint.
func (r *Runner) Submit(ctx context.Context, userID uuid.UUID, taskType string, parameters map[string]any, priority int, runAt time.Time) (*domain.Task, error) {
	if runAt.IsZero() {
		runAt = time.Now()
	}
	t := &domain.Task{
		ID:       uuid.New(),
		UserID:   userID,
		TaskType: taskType,
		Status:   domain.TaskStatusQueued,
		Priority: priority,
		RunAt:    runAt,
	}
	if parameters != nil {
		t.Parameters = parameters
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := r.tasks.Create(dbc, t); err != nil {
		return nil, fmt.Errorf("tasks: create: %w", err)
	}
	return t, nil
}
