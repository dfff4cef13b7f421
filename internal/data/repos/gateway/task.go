package gateway

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, t *domain.Task) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Task, error)
	// DequeueBatch returns up to limit queued, due tasks ordered by
	// priority desc, createdAt asc, per spec.md §4.11.
	DequeueBatch(dbc dbctx.Context, limit int) ([]*domain.Task, error)
	// ClaimProcessing performs the compare-and-set that moves a task from
	// queued to processing, bumping version. Returns false if another
	// worker already claimed it.
	ClaimProcessing(dbc dbctx.Context, id uuid.UUID, priorVersion int) (bool, error)
	Finish(dbc dbctx.Context, id uuid.UUID, status, result string) error
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *taskRepo) Create(dbc dbctx.Context, t *domain.Task) error {
	if t.Status == "" {
		t.Status = domain.TaskStatusQueued
	}
	return r.tx(dbc).Create(t).Error
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Task, error) {
	var t domain.Task
	if err := r.tx(dbc).Where("id = ?", id).First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) DequeueBatch(dbc dbctx.Context, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*domain.Task
	err := r.tx(dbc).
		Where("status = ? AND run_at <= now()", domain.TaskStatusQueued).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *taskRepo) ClaimProcessing(dbc dbctx.Context, id uuid.UUID, priorVersion int) (bool, error) {
	res := r.tx(dbc).Model(&domain.Task{}).
		Where("id = ? AND status = ? AND version = ?", id, domain.TaskStatusQueued, priorVersion).
		Updates(map[string]any{
			"status":  domain.TaskStatusProcessing,
			"version": priorVersion + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *taskRepo) Finish(dbc dbctx.Context, id uuid.UUID, status, result string) error {
	return r.tx(dbc).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": status,
			"result": result,
		}).Error
}
