package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewPostgresService opens the pool from a single DSN (spec.md §6's
// "connection string for the user/memory/task store"), rather than the
// discrete POSTGRES_HOST/PORT/USER env vars the teacher used — config.Config
// already assembles DatabaseURL once at startup.
func NewPostgresService(dsn string, baseLog *logger.Logger) (*PostgresService, error) {
	serviceLog := baseLog.With("service", "PostgresService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates/updates the four tables the gateway owns. Exit
// non-zero at startup on failure, per spec.md §6.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("auto-migrating postgres tables")
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.EmotionEntry{},
		&domain.MemoryMessage{},
		&domain.Task{},
	)
	if err != nil {
		s.log.Error("auto migration failed", "error", err)
		return err
	}
	return nil
}
