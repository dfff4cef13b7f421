package gateway

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// EmotionRepo is append-only: no Update or Delete method exists, matching
// the entity's contract in spec.md §3.
type EmotionRepo interface {
	Create(dbc dbctx.Context, e *domain.EmotionEntry) error
	RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.EmotionEntry, error)
}

type emotionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmotionRepo(db *gorm.DB, baseLog *logger.Logger) EmotionRepo {
	return &emotionRepo{db: db, log: baseLog.With("repo", "EmotionRepo")}
}

func (r *emotionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *emotionRepo) Create(dbc dbctx.Context, e *domain.EmotionEntry) error {
	return r.tx(dbc).Create(e).Error
}

func (r *emotionRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.EmotionEntry, error) {
	if limit <= 0 {
		limit = 3
	}
	var out []*domain.EmotionEntry
	err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
