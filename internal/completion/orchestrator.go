// Package completion implements C8, the completion orchestrator: the state
// machine that ties the metadata extractor, sanitizer, user cache, context
// assembler, intelligence compressor, upstream client, SSE relay, rate
// limiter, and side-effect committer together into one request lifecycle.
package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/cache"
	"github.com/yungbote/neurobridge-backend/internal/completion/commit"
	cctx "github.com/yungbote/neurobridge-backend/internal/completion/context"
	"github.com/yungbote/neurobridge-backend/internal/completion/metadata"
	"github.com/yungbote/neurobridge-backend/internal/completion/sanitize"
	"github.com/yungbote/neurobridge-backend/internal/compressor"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/gateway"
	"github.com/yungbote/neurobridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
	"github.com/yungbote/neurobridge-backend/internal/platform/llm"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/ratelimit"
)

// Sink is the surface the orchestrator writes a completion's output to. The
// SSE relay (C7) and a buffering no-op implementation for non-streaming
// requests both satisfy it.
type Sink interface {
	// Open commits to writing a streamed response; called only after the
	// upstream connection has been established, per spec.md §4.8.
	Open() error
	SendContent(content string) error
	SendError(message string) error
	Done() error
}

// Request is one completion's inputs.
type Request struct {
	UserID              uuid.UUID
	ClientIP            string
	Prompt              string
	IntelligenceContext *compressor.IntelligenceContext
	CompressorOptions   compressor.Options
}

// Result summarizes the outcome for the caller (HTTP handler, metrics).
type Result struct {
	State            State
	AssistantContent string
	Emotion          *metadata.Emotion
	Task             *metadata.Task
	TokenCount       int
}

type Orchestrator struct {
	userRepo    gateway.UserRepo
	memoryRepo  gateway.MemoryRepo
	emotionRepo gateway.EmotionRepo
	userCache   *cache.Cache
	limiter     *ratelimit.Limiter
	llmClient   *llm.Client
	committer   *commit.Committer
	log         *logger.Logger

	model             string
	temperature       float64
	maxPredictTokens  int
	maxAccumTokens    int
	hardStreamTimeout time.Duration
	noByteTimeout     time.Duration

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

type Config struct {
	Model             string
	Temperature       float64
	MaxPredictTokens  int
	MaxAccumTokens    int
	HardStreamTimeout time.Duration
	NoByteTimeout     time.Duration
}

func New(
	userRepo gateway.UserRepo,
	memoryRepo gateway.MemoryRepo,
	emotionRepo gateway.EmotionRepo,
	userCache *cache.Cache,
	limiter *ratelimit.Limiter,
	llmClient *llm.Client,
	committer *commit.Committer,
	cfg Config,
	baseLog *logger.Logger,
) *Orchestrator {
	if cfg.Temperature <= 0 || cfg.Temperature > 0.85 {
		cfg.Temperature = 0.85
	}
	if cfg.MaxPredictTokens <= 0 || cfg.MaxPredictTokens > 1000 {
		cfg.MaxPredictTokens = 1000
	}
	if cfg.MaxAccumTokens <= 0 {
		cfg.MaxAccumTokens = 800
	}
	if cfg.HardStreamTimeout <= 0 {
		cfg.HardStreamTimeout = 45 * time.Second
	}
	if cfg.NoByteTimeout <= 0 {
		cfg.NoByteTimeout = 30 * time.Second
	}
	return &Orchestrator{
		userRepo:          userRepo,
		memoryRepo:        memoryRepo,
		emotionRepo:       emotionRepo,
		userCache:         userCache,
		limiter:           limiter,
		llmClient:         llmClient,
		committer:         committer,
		log:               baseLog.With("component", "Orchestrator"),
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		maxPredictTokens:  cfg.MaxPredictTokens,
		maxAccumTokens:    cfg.MaxAccumTokens,
		hardStreamTimeout: cfg.HardStreamTimeout,
		noByteTimeout:     cfg.NoByteTimeout,
		inFlight:          make(map[uuid.UUID]struct{}),
	}
}

func (o *Orchestrator) acquire(userID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[userID]; busy {
		return false
	}
	o.inFlight[userID] = struct{}{}
	return true
}

func (o *Orchestrator) release(userID uuid.UUID) {
	o.mu.Lock()
	delete(o.inFlight, userID)
	o.mu.Unlock()
}

func (o *Orchestrator) loadUserEntry(ctx context.Context, userID uuid.UUID) (*cache.Entry, error) {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := o.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.UserNotFound(fmt.Errorf("user %s not found", userID))
	}
	profile := make(map[string]string, len(u.Profile))
	for k, v := range u.Profile {
		if s, ok := v.(string); ok {
			profile[k] = s
		}
	}
	recent, err := o.memoryRepo.RecentByUser(dbc, userID, 6)
	if err != nil {
		return nil, err
	}
	return &cache.Entry{Profile: profile, RecentMemory: recent}, nil
}

// Run drives one completion end to end. sink must have Open called exactly
// once the upstream connection succeeds; Run does this itself.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (*Result, error) {
	log := o.log.With("user_id", req.UserID)

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return &Result{State: StateRejectedInput}, apierr.InvalidInput(fmt.Errorf("prompt must not be empty"))
	}

	identity := req.UserID.String()
	if req.UserID == uuid.Nil {
		identity = req.ClientIP
	}
	if !o.limiter.BypassLocalDev(req.ClientIP) {
		decision, err := o.limiter.AdmitCompletion(ctx, identity)
		if err != nil {
			return &Result{State: StateInternalError}, apierr.Internal(err)
		}
		if !decision.Admitted {
			return &Result{State: StateRejectedLimit}, apierr.RateLimited(fmt.Errorf("rate limit exceeded on scope %q, retry after %s", decision.Scope, decision.RetryAfter))
		}
	}

	if !o.acquire(req.UserID) {
		return &Result{State: StateRejectedLimit}, apierr.AlreadyInProgress(fmt.Errorf("a completion is already in progress for this user"))
	}
	defer o.release(req.UserID)

	// Accepted -> Prepared.
	entry, err := o.userCache.Get(ctx, req.UserID, o.loadUserEntry)
	if err != nil {
		return &Result{State: StateInternalError}, apierr.As(err)
	}

	recentEmotions, err := o.emotionRepo.RecentByUser(dbctx.Context{Ctx: ctx}, req.UserID, 3)
	if err != nil {
		log.Warn("failed to load recent emotions, proceeding without them", "error", err)
		recentEmotions = nil
	}

	var compressedIntelligence string
	if req.IntelligenceContext != nil {
		opts := req.CompressorOptions
		if opts.Model == "" {
			opts.Model = o.model
		}
		opts.HistoryLen = len(entry.RecentMemory)
		compressedIntelligence = compressor.Compress(*req.IntelligenceContext, opts).Text
	}

	messages := cctx.Assemble(entry.Profile, recentEmotions, entry.RecentMemory, compressedIntelligence, prompt)

	// Prepared -> Streaming: open upstream before committing to any
	// response bytes.
	stream, err := o.llmClient.StreamCompletion(ctx, messages, o.temperature, o.maxPredictTokens)
	if err != nil {
		// Nothing has been written to the wire yet: the caller still owns
		// the HTTP response, so this gets its own state distinct from a
		// post-Open upstream failure (which has already sent an SSE frame).
		return &Result{State: StateUpstreamFailedPreByte}, err
	}
	defer stream.Close()

	if err := sink.Open(); err != nil {
		return &Result{State: StateInternalError}, apierr.Internal(err)
	}

	buf, tokenCount, drain := o.stream(ctx, stream, sink, log)

	// Streaming -> Draining: terminal SSE event goes out before the
	// (fire-and-forget, from the client's perspective) commit runs.
	accumulated := buf.String()
	if drain.upstreamErr != nil && accumulated == "" {
		_ = sink.SendError("the assistant is temporarily unavailable")
		_ = sink.Done()
		return &Result{State: StateUpstreamFailed}, drain.upstreamErr
	}
	if drain.upstreamErr != nil {
		_ = sink.SendError("the assistant connection was interrupted")
	}
	_ = sink.Done()

	state := StateDraining
	if drain.clientGone {
		state = StateClientGone
	} else if drain.upstreamErr != nil {
		state = StateUpstreamFailed
	}

	// Draining -> Committing.
	extracted := metadata.Extract(accumulated)
	cleaned := sanitize.Sanitize(extracted.Cleaned)

	o.committer.Commit(context.Background(), commit.Input{
		UserID:           req.UserID,
		UserPrompt:       prompt,
		AssistantContent: cleaned,
		Emotion:          extracted.Emotion,
		Task:             extracted.Task,
	})

	// Committing -> Done.
	if state == StateDraining {
		state = StateDone
	}
	log.Info("completion finished", "state", state, "tokens", tokenCount)

	return &Result{
		State:            state,
		AssistantContent: cleaned,
		Emotion:          extracted.Emotion,
		Task:             extracted.Task,
		TokenCount:       tokenCount,
	}, nil
}

type drainReason struct {
	upstreamErr error
	clientGone  bool
}

// stream runs the Streaming state: it reads deltas until a stop sequence
// appears, the token cap is hit, a timer fires, or the upstream ends. The
// hard-stream and no-byte timers cancel streamCtx and force-close the
// upstream stream, so a Next call blocked on a slow or hung read is
// unblocked rather than left to hang past the timeout; timedOut
// distinguishes a deliberate timer-forced drain from a genuine upstream
// error. Marker suppression runs against the accumulated buffer, not each
// delta in isolation, so a marker literal split across two deltas never
// leaks a fragment to the client before the rest of it arrives.
func (o *Orchestrator) stream(parent context.Context, stream *llm.Stream, sink Sink, log *logger.Logger) (strings.Builder, int, drainReason) {
	var buf strings.Builder
	tokenCount := 0
	sent := 0

	streamCtx, cancel := context.WithCancel(parent)
	defer cancel()

	var timedOut atomic.Bool // true when a timer, not the caller, cancelled streamCtx
	resetCh := make(chan struct{}, 1)

	hardTimer := time.NewTimer(o.hardStreamTimeout)
	noByteTimer := time.NewTimer(o.noByteTimeout)
	defer hardTimer.Stop()
	defer noByteTimer.Stop()

	go func() {
		for {
			select {
			case <-hardTimer.C:
				timedOut.Store(true)
				cancel()
				stream.Close()
				return
			case <-noByteTimer.C:
				timedOut.Store(true)
				cancel()
				stream.Close()
				return
			case <-resetCh:
				noByteTimer.Reset(o.noByteTimeout)
			case <-streamCtx.Done():
				return
			}
		}
	}()

	flush := func() error {
		toForward, newSent := metadata.FlushFiltered(buf.String(), sent)
		sent = newSent
		if toForward == "" {
			return nil
		}
		return sink.SendContent(toForward)
	}

	for {
		delta, ok, err := stream.Next(streamCtx)
		if err != nil {
			if timedOut.Load() {
				if flushErr := flush(); flushErr != nil {
					return buf, tokenCount, drainReason{clientGone: true}
				}
				return buf, tokenCount, drainReason{}
			}
			if parent.Err() != nil {
				return buf, tokenCount, drainReason{clientGone: true}
			}
			return buf, tokenCount, drainReason{upstreamErr: err}
		}
		if !ok {
			if flushErr := flush(); flushErr != nil {
				return buf, tokenCount, drainReason{clientGone: true}
			}
			return buf, tokenCount, drainReason{}
		}

		buf.WriteString(delta.Content)
		select {
		case resetCh <- struct{}{}:
		default:
		}

		if _, idx, found := firstStopSequence(buf.String()); found {
			// The stop sequence may start partway through this delta (or
			// wholly within it); forward whatever precedes the match,
			// filtered the same final way as a true end of stream, before
			// draining, per spec.md's "Answer. \nHuman:" case.
			toForward, _ := metadata.FlushFiltered(buf.String()[:idx], sent)
			if toForward != "" {
				if err := sink.SendContent(toForward); err != nil {
					return buf, tokenCount, drainReason{clientGone: true}
				}
			}
			return buf, tokenCount, drainReason{}
		}

		toForward, newSent := metadata.AdvanceFiltered(buf.String(), sent)
		sent = newSent
		if toForward != "" {
			if err := sink.SendContent(toForward); err != nil {
				return buf, tokenCount, drainReason{clientGone: true}
			}
		}

		tokenCount += compressor.EstimateTokens(delta.Content)
		if tokenCount > o.maxAccumTokens {
			if flushErr := flush(); flushErr != nil {
				return buf, tokenCount, drainReason{clientGone: true}
			}
			return buf, tokenCount, drainReason{}
		}
	}
}
