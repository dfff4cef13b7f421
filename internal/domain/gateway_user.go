package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the gateway's account record. Email is case-folded at write so
// lookups never need a case-insensitive index.
type User struct {
	ID                  uuid.UUID            `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email               string               `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash        string               `gorm:"not null;column:password_hash" json:"-"`
	Profile             datatypes.JSONMap    `gorm:"column:profile;type:jsonb;not null;default:'{}'" json:"profile"`
	SubscriptionActive  bool                 `gorm:"column:subscription_active;not null;default:false" json:"subscription_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeSave lowercases and trims the email so the unique index is
// effectively case-insensitive without a functional index.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// EmotionEntry is an append-only record of the user's reported emotional
// state. Nothing in this package ever updates or deletes one.
type EmotionEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Emotion   string    `gorm:"not null;column:emotion" json:"emotion"`
	Intensity *int      `gorm:"column:intensity" json:"intensity,omitempty"`
	Context   string    `gorm:"column:context" json:"context,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (EmotionEntry) TableName() string { return "emotion_entries" }

const (
	MemoryRoleUser      = "user"
	MemoryRoleAssistant = "assistant"
)

// MemoryMessage is one turn of conversation history, subject to a bounded
// TTL purge. Reads are most-recent-first; callers reverse to chronological
// order before handing history to the context assembler.
type MemoryMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Role      string    `gorm:"not null;column:role" json:"role"`
	Content   string    `gorm:"not null;column:content" json:"content"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (MemoryMessage) TableName() string { return "memory_messages" }

const (
	TaskStatusQueued     = "queued"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Task is a unit of deferred work inferred from a completion or submitted
// directly. Version is used for the processing compare-and-set that keeps
// exactly one worker owning a row at a time.
type Task struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskType   string            `gorm:"not null;column:task_type" json:"task_type"`
	Parameters datatypes.JSONMap `gorm:"column:parameters;type:jsonb;not null;default:'{}'" json:"parameters"`
	Status     string            `gorm:"not null;column:status;index" json:"status"`
	Priority   int               `gorm:"not null;column:priority;default:0" json:"priority"`
	CreatedAt  time.Time         `gorm:"not null;default:now();index" json:"created_at"`
	RunAt      time.Time         `gorm:"not null;column:run_at;default:now();index" json:"run_at"`
	Result     string            `gorm:"column:result" json:"result,omitempty"`
	Version    int               `gorm:"not null;column:version;default:0" json:"version"`
}

func (Task) TableName() string { return "tasks" }
