// Package commit implements C10: given a finished turn, it appends the
// memory pair and, when present, the emotion entry and task, running all
// three in parallel and best-effort per spec.md §4.10.
package commit

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/cache"
	"github.com/yungbote/neurobridge-backend/internal/completion/metadata"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Input bundles the finished turn's side-effect candidates.
type Input struct {
	UserID           uuid.UUID
	UserPrompt       string
	AssistantContent string
	Emotion          *metadata.Emotion
	Task             *metadata.Task
}

type Committer struct {
	memoryRepo  gateway.MemoryRepo
	emotionRepo gateway.EmotionRepo
	taskRepo    gateway.TaskRepo
	userCache   *cache.Cache
	log         *logger.Logger
}

func New(memoryRepo gateway.MemoryRepo, emotionRepo gateway.EmotionRepo, taskRepo gateway.TaskRepo, userCache *cache.Cache, baseLog *logger.Logger) *Committer {
	return &Committer{
		memoryRepo:  memoryRepo,
		emotionRepo: emotionRepo,
		taskRepo:    taskRepo,
		userCache:   userCache,
		log:         baseLog.With("component", "Committer"),
	}
}

// Commit runs the three operations in parallel; a failure in one is logged
// and does not prevent the others, then invalidates the user cache entry
// regardless of individual outcomes, since at least the memory pair (or an
// attempt at it) changed the user's state.
func (c *Committer) Commit(ctx context.Context, in Input) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		dbc := dbctx.Context{Ctx: ctx}
		if err := c.memoryRepo.CreatePair(dbc, in.UserID, in.UserPrompt, in.AssistantContent); err != nil {
			c.log.Error("failed to commit memory pair", "user_id", in.UserID, "error", err)
		}
	}()

	if in.Emotion != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dbc := dbctx.Context{Ctx: ctx}
			row := &domain.EmotionEntry{
				UserID:    in.UserID,
				Emotion:   in.Emotion.Emotion,
				Intensity: in.Emotion.Intensity,
				Context:   in.Emotion.Context,
			}
			if err := c.emotionRepo.Create(dbc, row); err != nil {
				c.log.Error("failed to commit emotion entry", "user_id", in.UserID, "error", err)
			}
		}()
	}

	if in.Task != nil && in.Task.TaskType != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dbc := dbctx.Context{Ctx: ctx}
			row := &domain.Task{
				UserID:     in.UserID,
				TaskType:   in.Task.TaskType,
				Parameters: in.Task.Parameters,
				Status:     domain.TaskStatusQueued,
			}
			if err := c.taskRepo.Create(dbc, row); err != nil {
				c.log.Error("failed to commit task", "user_id", in.UserID, "error", err)
			}
		}()
	}

	wg.Wait()
	c.userCache.Invalidate(in.UserID)
}
