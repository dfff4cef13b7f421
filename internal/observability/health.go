package observability

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/platform/llm"
)

// ComponentStatus is one dependency's health check result.
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the body of GET /health and GET /healthz.
type Report struct {
	Server   ComponentStatus `json:"server"`
	Database ComponentStatus `json:"database"`
	LLMAPI   ComponentStatus `json:"llm_api"`
}

// Healthy reports whether every dependency checked out.
func (r Report) Healthy() bool {
	return r.Database.Status == "ok" && r.LLMAPI.Status == "ok"
}

// HealthChecker runs the checks behind the health report. It holds no
// state beyond the clients it pings.
type HealthChecker struct {
	db        *gorm.DB
	llmClient *llm.Client
	timeout   time.Duration
}

func NewHealthChecker(db *gorm.DB, llmClient *llm.Client) *HealthChecker {
	return &HealthChecker{db: db, llmClient: llmClient, timeout: 3 * time.Second}
}

// Check pings the database and upstream LLM API with a bounded timeout
// each, so a single slow dependency can't hang the whole health endpoint.
func (h *HealthChecker) Check(ctx context.Context) Report {
	return Report{
		Server:   ComponentStatus{Status: "ok"},
		Database: h.checkDatabase(ctx),
		LLMAPI:   h.checkLLM(ctx),
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentStatus {
	if h.db == nil {
		return ComponentStatus{Status: "error", Error: "no database configured"}
	}
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentStatus{Status: "error", Error: err.Error()}
	}
	if err := sqlDB.PingContext(cctx); err != nil {
		return ComponentStatus{Status: "error", Error: err.Error()}
	}
	return ComponentStatus{Status: "ok"}
}

func (h *HealthChecker) checkLLM(ctx context.Context) ComponentStatus {
	if h.llmClient == nil {
		return ComponentStatus{Status: "error", Error: "no llm client configured"}
	}
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.llmClient.Ping(cctx); err != nil {
		return ComponentStatus{Status: "error", Error: err.Error()}
	}
	return ComponentStatus{Status: "ok"}
}
