package tasks

import (
	"context"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Poller drains the task queue on a fixed interval without Temporal, for
// local development and any deployment that hasn't stood up a Temporal
// server. It provides the same queued -> processing -> completed/failed
// guarantee as the Temporal path because the ownership compare-and-set lives
// in Runner.runOne, not in the scheduler.
type Poller struct {
	runner   *Runner
	log      *logger.Logger
	interval time.Duration
}

func NewPoller(runner *Runner, interval time.Duration, baseLog *logger.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		runner:   runner,
		interval: interval,
		log:      baseLog.With("component", "TaskPoller"),
	}
}

// Start runs the drain loop until ctx is cancelled. Callers that want
// graceful shutdown should cancel ctx and let the in-flight DrainOnce call
// finish.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("task poller started", "interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			p.log.Info("task poller stopping")
			return
		case <-ticker.C:
			res, err := p.runner.DrainOnce(ctx)
			if err != nil {
				p.log.Warn("drain pass failed", "error", err)
				continue
			}
			if res.Dequeued > 0 {
				p.log.Info("drain pass complete", "dequeued", res.Dequeued, "completed", res.Completed, "failed", res.Failed, "skipped", res.Skipped)
			}
		}
	}
}
