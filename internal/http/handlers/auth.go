package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
	"github.com/yungbote/neurobridge-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ae := apierr.InvalidInput(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	user, token, err := ah.authService.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ae := apierr.As(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user": gin.H{
			"id":    user.ID.String(),
			"email": user.Email,
		},
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ae := apierr.InvalidInput(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ae := apierr.As(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user": gin.H{
			"id":    user.ID.String(),
			"email": user.Email,
		},
	})
}
