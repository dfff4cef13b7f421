package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
)

type TaskHandler struct {
	taskRepo gateway.TaskRepo
}

func NewTaskHandler(taskRepo gateway.TaskRepo) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo}
}

// GET /tasks/:id is a read-only status lookup; it returns id/status/result
// only, per spec.md §3's Task fields (supplements spec.md, which otherwise
// gives no way for a client to poll what it inferred).
func (th *TaskHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ae := apierr.InvalidInput(errors.New("invalid task id"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	task, err := th.taskRepo.GetByID(dbc, id)
	if err != nil {
		ae := apierr.Internal(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	if task == nil {
		ae := apierr.New(404, "task_not_found", errors.New("task not found"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":     task.ID.String(),
		"status": task.Status,
		"result": task.Result,
	})
}
