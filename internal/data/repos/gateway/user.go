package gateway

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *domain.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*domain.User, error)
	UpdateProfile(dbc dbctx.Context, id uuid.UUID, profile map[string]string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, u *domain.User) error {
	return r.tx(dbc).Create(u).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.tx(dbc).Where("id = ?", id).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.tx(dbc).Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateProfile(dbc dbctx.Context, id uuid.UUID, profile map[string]string) error {
	m := make(datatypes.JSONMap, len(profile))
	for k, v := range profile {
		m[k] = v
	}
	return r.tx(dbc).Model(&domain.User{}).Where("id = ?", id).Update("profile", m).Error
}
