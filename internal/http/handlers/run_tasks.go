package handlers

import (
	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
	"github.com/yungbote/neurobridge-backend/internal/tasks"
)

// RunTasksHandler backs GET /run-tasks: a batch size fixed server-side,
// drained either synchronously (no Temporal configured) or by starting a
// Temporal workflow execution (fire-and-forget from this handler's view).
type RunTasksHandler struct {
	runner *tasks.Runner
	tc     temporalsdkclient.Client // nil when Temporal is not configured
}

func NewRunTasksHandler(runner *tasks.Runner, tc temporalsdkclient.Client) *RunTasksHandler {
	return &RunTasksHandler{runner: runner, tc: tc}
}

func (h *RunTasksHandler) Run(c *gin.Context) {
	if h.tc != nil {
		if err := tasks.TriggerDrain(c.Request.Context(), h.tc); err != nil {
			ae := apierr.Internal(err)
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		response.RespondOK(c, gin.H{"mode": "temporal", "status": "triggered"})
		return
	}

	res, err := h.runner.DrainOnce(c.Request.Context())
	if err != nil {
		ae := apierr.Internal(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"mode":      "inline",
		"dequeued":  res.Dequeued,
		"completed": res.Completed,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
	})
}
