package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/neurobridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-backend/internal/http/middleware"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/ratelimit"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware
	Limiter        *ratelimit.Limiter

	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	CompletionHandler *httpH.CompletionHandler
	EmotionHandler    *httpH.EmotionHandler
	TaskHandler       *httpH.TaskHandler
	RunTasksHandler   *httpH.RunTasksHandler
	HealthHandler     *httpH.HealthHandler
}

// NewRouter wires the HTTP surface named in spec.md §6, plus the
// GET /healthz alias and GET /tasks/:id lookup supplemented for this repo.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	// generalLimit enforces C9's general scope on every route except
	// /completion, which already admits itself against the general scope
	// (before the completion scope) inside the orchestrator; applying this
	// middleware there too would double-count one request against two
	// windows at once.
	generalLimit := httpMW.RateLimitGeneral(cfg.Limiter)

	if cfg.AuthHandler != nil {
		r.POST("/signup", generalLimit, cfg.AuthHandler.Signup)
		r.POST("/login", generalLimit, cfg.AuthHandler.Login)
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.UserHandler != nil {
			protected.GET("/profile", generalLimit, cfg.UserHandler.GetProfile)
		}
		if cfg.CompletionHandler != nil {
			protected.POST("/completion", cfg.CompletionHandler.Create)
		}
		if cfg.EmotionHandler != nil {
			protected.POST("/emotions", generalLimit, cfg.EmotionHandler.Create)
		}
		if cfg.TaskHandler != nil {
			protected.GET("/tasks/:id", generalLimit, cfg.TaskHandler.Get)
		}
		if cfg.RunTasksHandler != nil {
			protected.GET("/run-tasks", generalLimit, cfg.RunTasksHandler.Run)
		}
	}

	return r
}
