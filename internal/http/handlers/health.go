package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/observability"
)

type HealthHandler struct {
	checker *observability.HealthChecker
}

func NewHealthHandler(checker *observability.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HealthCheck backs both GET /health and GET /healthz: the database and
// upstream LLM API are pinged with a bounded timeout each, and a 503 is
// returned if either is unreachable.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	report := h.checker.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
