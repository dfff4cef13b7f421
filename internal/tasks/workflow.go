package tasks

import (
	"context"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/temporalx"
)

const (
	WorkflowName = "neurobridge.tasks.DrainWorkflow"
	ActivityName = "neurobridge.tasks.DrainActivity"
)

// Activities wraps a Runner so a single DrainOnce call can be scheduled as a
// Temporal activity. Temporal's task-queue dispatch already guarantees a
// given workflow execution is owned by exactly one worker at a time, which
// is the same "processing" ownership the fallback poller gets from the SQL
// compare-and-set in Runner.runOne — the activity below relies on both.
type Activities struct {
	Runner *Runner
}

func (a *Activities) Drain(ctx context.Context) (DrainResult, error) {
	if a == nil || a.Runner == nil {
		return DrainResult{}, fmt.Errorf("tasks: activity has no runner configured")
	}
	return a.Runner.DrainOnce(ctx)
}

// DrainWorkflow runs one drain activity per invocation. It is started on
// demand by TriggerDrain (GET /run-tasks, as a started-then-forgotten
// workflow execution); nothing in this repo starts it on a schedule.
func DrainWorkflow(ctx workflow.Context) (DrainResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var res DrainResult
	err := workflow.ExecuteActivity(ctx, ActivityName).Get(ctx, &res)
	return res, err
}

// Worker registers the drain workflow and activity on a Temporal worker
// bound to the task queue from temporalx.LoadConfig.
func Worker(tc temporalsdkclient.Client, runner *Runner) worker.Worker {
	cfg := temporalx.LoadConfig()
	w := worker.New(tc, cfg.TaskQueue, worker.Options{})
	acts := &Activities{Runner: runner}
	w.RegisterWorkflowWithOptions(DrainWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(acts.Drain, activity.RegisterOptions{Name: ActivityName})
	return w
}

// TriggerDrain starts (or, if already running, no-ops on) one drain workflow
// execution, used by GET /run-tasks when Temporal is configured. It does not
// wait for completion; the HTTP handler reports tasks queued for draining,
// not final per-task outcomes, when running via Temporal.
func TriggerDrain(ctx context.Context, tc temporalsdkclient.Client) error {
	cfg := temporalx.LoadConfig()
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                       "tasks-drain",
		TaskQueue:                cfg.TaskQueue,
		WorkflowExecutionTimeout: 2 * time.Minute,
	}
	_, err := tc.ExecuteWorkflow(ctx, opts, DrainWorkflow)
	if err != nil {
		return fmt.Errorf("tasks: start drain workflow: %w", err)
	}
	return nil
}

// StartWorker is called from App.Start to host a long-lived Temporal worker
// for the drain workflow; the worker stops when ctx is cancelled.
func StartWorker(ctx context.Context, log *logger.Logger, tc temporalsdkclient.Client, runner *Runner) error {
	if tc == nil {
		return fmt.Errorf("tasks: temporal client not configured")
	}
	w := Worker(tc, runner)
	if err := w.Start(); err != nil {
		return fmt.Errorf("tasks: start temporal worker: %w", err)
	}
	if log != nil {
		log.Info("temporal task-drain worker started")
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}
