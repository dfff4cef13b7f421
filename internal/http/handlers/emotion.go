package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
)

type EmotionHandler struct {
	emotionRepo gateway.EmotionRepo
}

func NewEmotionHandler(emotionRepo gateway.EmotionRepo) *EmotionHandler {
	return &EmotionHandler{emotionRepo: emotionRepo}
}

// POST /emotions logs one directly-reported emotion, independent of any
// EMOTION_LOG marker a completion might also produce.
func (eh *EmotionHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		ae := apierr.Unauthorized(errors.New("no authenticated request context"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	var req struct {
		Mood      string `json:"mood"`
		Intensity *int   `json:"intensity"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ae := apierr.InvalidInput(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	if req.Mood == "" {
		ae := apierr.InvalidInput(errors.New("mood is required"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	if req.Intensity != nil {
		clamped := clampIntensity(*req.Intensity)
		req.Intensity = &clamped
	}

	entry := &domain.EmotionEntry{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		Emotion:   req.Mood,
		Intensity: req.Intensity,
		Context:   req.Notes,
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := eh.emotionRepo.Create(dbc, entry); err != nil {
		ae := apierr.Internal(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":        entry.ID.String(),
		"emotion":   entry.Emotion,
		"intensity": entry.Intensity,
	})
}

// clampIntensity enforces the [1,10] bound invariant regardless of what the
// client sends.
func clampIntensity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
