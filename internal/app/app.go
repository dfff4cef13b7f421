// Package app wires the gateway's components together: config, the
// Postgres store, caches, the upstream LLM client, the rate limiter, the
// completion orchestrator, the task runner, and the HTTP router. It mirrors
// the teacher's App.New/Start/Close lifecycle rather than a DI container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/cache"
	"github.com/yungbote/neurobridge-backend/internal/completion"
	"github.com/yungbote/neurobridge-backend/internal/completion/commit"
	"github.com/yungbote/neurobridge-backend/internal/data/db"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	httpapi "github.com/yungbote/neurobridge-backend/internal/http"
	httpH "github.com/yungbote/neurobridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-backend/internal/http/middleware"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/platform/config"
	"github.com/yungbote/neurobridge-backend/internal/platform/llm"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/ratelimit"
	"github.com/yungbote/neurobridge-backend/internal/services"
	"github.com/yungbote/neurobridge-backend/internal/tasks"
	"github.com/yungbote/neurobridge-backend/internal/temporalx"
)

type Repos struct {
	User    gateway.UserRepo
	Memory  gateway.MemoryRepo
	Emotion gateway.EmotionRepo
	Task    gateway.TaskRepo
}

// App is the wired gateway process: config, store, in-process state, and
// the HTTP surface on top of it.
type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Cfg    config.Config
	Repos  Repos
	Router *gin.Engine

	AuthService  services.AuthService
	UserCache    *cache.Cache
	Limiter      *ratelimit.Limiter
	LLMClient    *llm.Client
	Committer    *commit.Committer
	Orchestrator *completion.Orchestrator

	Metrics       *observability.Metrics
	HealthChecker *observability.HealthChecker

	TaskRunner   *tasks.Runner
	TaskPoller   *tasks.Poller
	TemporalCli  temporalsdkclient.Client // nil unless cfg.TemporalAddr is set

	server *http.Server
	cancel context.CancelFunc
}

// New loads config, connects to Postgres, and wires every component named
// in spec.md. The only goroutine it starts is the user cache's janitor
// (started by cache.New); the other background loops start in Start.
func New() (*App, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := config.Load(bootLog)

	log := bootLog
	if cfg.LogMode != "" && cfg.LogMode != "development" {
		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	pg, err := db.NewPostgresService(cfg.DatabaseURL, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	gdb := pg.DB()

	repos := Repos{
		User:    gateway.NewUserRepo(gdb, log),
		Memory:  gateway.NewMemoryRepo(gdb, log),
		Emotion: gateway.NewEmotionRepo(gdb, log),
		Task:    gateway.NewTaskRepo(gdb, log),
	}

	userCache := cache.New(cfg.UserCacheTTL, log)

	rlBackend := ratelimit.Backend(ratelimit.NewMemoryBackend())
	if cfg.RedisAddr != "" {
		redisBackend, err := ratelimit.NewRedisBackend(cfg.RedisAddr)
		if err != nil {
			log.Warn("redis rate-limit backend unavailable, falling back to in-process", "error", err)
		} else {
			rlBackend = redisBackend
		}
	}
	limiter := ratelimit.New(rlBackend, cfg.GeneralRateLimit, cfg.GeneralRateWindow, cfg.CompletionRateLimit, cfg.CompletionWindow)

	llmClient := llm.New(llm.Config{
		BaseURL:   cfg.UpstreamBaseURL,
		APIKey:    cfg.UpstreamAPIKey,
		Model:     cfg.UpstreamModel,
		VerifyTLS: cfg.UpstreamVerifyTLS,
	})

	committer := commit.New(repos.Memory, repos.Emotion, repos.Task, userCache, log)

	orchestrator := completion.New(repos.User, repos.Memory, repos.Emotion, userCache, limiter, llmClient, committer, completion.Config{
		Model:             cfg.UpstreamModel,
		Temperature:       cfg.Temperature,
		MaxPredictTokens:  cfg.MaxPredictTokens,
		MaxAccumTokens:    cfg.MaxAccumTokens,
		HardStreamTimeout: cfg.HardStreamTimeout,
		NoByteTimeout:     cfg.NoByteTimeout,
	}, log)

	authService := services.NewAuthService(repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL, log)

	metrics := observability.New()
	healthChecker := observability.NewHealthChecker(gdb, llmClient)

	taskRunner := tasks.NewRunner(repos.Task, log)
	taskRunner.OnRun(metrics.ObserveTaskRun)
	taskPoller := tasks.NewPoller(taskRunner, 5*time.Second, log)

	var temporalCli temporalsdkclient.Client
	if cfg.TemporalAddr != "" {
		temporalCli, err = temporalx.NewClient(log)
		if err != nil {
			log.Warn("temporal client unavailable, falling back to local poller", "error", err)
			temporalCli = nil
		}
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authService),
		Limiter:        limiter,

		AuthHandler:       httpH.NewAuthHandler(authService),
		UserHandler:       httpH.NewUserHandler(repos.User),
		CompletionHandler: httpH.NewCompletionHandler(orchestrator, metrics),
		EmotionHandler:    httpH.NewEmotionHandler(repos.Emotion),
		TaskHandler:       httpH.NewTaskHandler(repos.Task),
		RunTasksHandler:   httpH.NewRunTasksHandler(taskRunner, temporalCli),
		HealthHandler:     httpH.NewHealthHandler(healthChecker),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	return &App{
		Log:           log,
		DB:            gdb,
		Cfg:           cfg,
		Repos:         repos,
		Router:        router,
		AuthService:   authService,
		UserCache:     userCache,
		Limiter:       limiter,
		LLMClient:     llmClient,
		Committer:     committer,
		Orchestrator:  orchestrator,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		TaskRunner:    taskRunner,
		TaskPoller:    taskPoller,
		TemporalCli:   temporalCli,
		server:        server,
	}, nil
}

// Start launches the background loops: metrics collectors, the SLO
// evaluator, and the task drain loop (Temporal worker if configured,
// otherwise the local poller). It is idempotent.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Metrics.StartPostgresCollector(runCtx, a.Log, a.DB)
	a.Metrics.StartCacheCollector(runCtx, func() (int64, int64, int64) {
		s := a.UserCache.Stats()
		return s.Hits, s.Misses, s.Evicted
	})
	if a.Cfg.RedisAddr != "" {
		a.Metrics.StartRedisCollector(runCtx, a.Log, a.Cfg.RedisAddr)
	}
	a.Metrics.StartTaskQueueCollector(runCtx, a.Log, a.DB)
	a.Metrics.StartSLOEvaluator(runCtx, a.Log)

	if a.TemporalCli != nil {
		if err := tasks.StartWorker(runCtx, a.Log, a.TemporalCli, a.TaskRunner); err != nil {
			a.Log.Warn("temporal worker failed to start, falling back to local poller", "error", err)
			go a.TaskPoller.Start(runCtx)
		}
	} else {
		go a.TaskPoller.Start(runCtx)
	}

	return nil
}

// Run starts the HTTP server and blocks until ctx is canceled, at which
// point it drains in-flight requests within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close cancels background loops, flushes the logger, and closes the
// Temporal client if one was connected.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.TemporalCli != nil {
		a.TemporalCli.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
