package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
)

type UserHandler struct {
	userRepo gateway.UserRepo
}

func NewUserHandler(userRepo gateway.UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GET /profile returns the authenticated user's safe fields only, per
// spec.md §6.
func (uh *UserHandler) GetProfile(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		ae := apierr.Unauthorized(errors.New("no authenticated request context"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	user, err := uh.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		ae := apierr.Internal(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	if user == nil {
		ae := apierr.UserNotFound(errors.New("user not found"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":                  user.ID.String(),
		"email":               user.Email,
		"profile":             user.Profile,
		"subscription_active": user.SubscriptionActive,
		"created_at":          user.CreatedAt,
	})
}
