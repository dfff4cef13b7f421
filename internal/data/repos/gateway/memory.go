package gateway

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type MemoryRepo interface {
	// CreatePair appends the user/assistant turn in one batch, per spec.md
	// §8's "memory pairing" invariant.
	CreatePair(dbc dbctx.Context, userID uuid.UUID, userContent, assistantContent string) error
	// RecentByUser returns up to limit messages, most-recent-first.
	RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.MemoryMessage, error)
	PurgeOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: baseLog.With("repo", "MemoryRepo")}
}

func (r *memoryRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *memoryRepo) CreatePair(dbc dbctx.Context, userID uuid.UUID, userContent, assistantContent string) error {
	rows := []*domain.MemoryMessage{
		{UserID: userID, Role: domain.MemoryRoleUser, Content: userContent},
		{UserID: userID, Role: domain.MemoryRoleAssistant, Content: assistantContent},
	}
	return r.tx(dbc).Create(&rows).Error
}

func (r *memoryRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.MemoryMessage, error) {
	if limit <= 0 {
		limit = 6
	}
	var out []*domain.MemoryMessage
	err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *memoryRepo) PurgeOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := r.tx(dbc).Where("created_at < ?", cutoff).Delete(&domain.MemoryMessage{})
	return res.RowsAffected, res.Error
}
