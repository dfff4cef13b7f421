package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/completion"
	"github.com/yungbote/neurobridge-backend/internal/compressor"
	"github.com/yungbote/neurobridge-backend/internal/http/response"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
	"github.com/yungbote/neurobridge-backend/internal/sse"
)

type CompletionHandler struct {
	orchestrator *completion.Orchestrator
	metrics      *observability.Metrics
}

func NewCompletionHandler(orchestrator *completion.Orchestrator, metrics *observability.Metrics) *CompletionHandler {
	return &CompletionHandler{orchestrator: orchestrator, metrics: metrics}
}

type completionRequest struct {
	Prompt              string                 `json:"prompt"`
	Stream              *bool                  `json:"stream"`
	IntelligenceContext *intelligenceContextDTO `json:"intelligence_context,omitempty"`
	MessageType         string                 `json:"message_type,omitempty"`
	Complexity          float64                `json:"complexity,omitempty"`
}

type intelligenceContextDTO struct {
	Micro     map[string]any `json:"micro,omitempty"`
	Medium    map[string]any `json:"medium,omitempty"`
	Macro     map[string]any `json:"macro,omitempty"`
	Synthesis map[string]any `json:"synthesis,omitempty"`
}

// POST /completion drives one full completion through the orchestrator,
// as SSE by default (stream absent or true), or as a non-streaming JSON
// response when the body sets stream:false.
func (ch *CompletionHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		ae := apierr.Unauthorized(errors.New("no authenticated request context"))
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	var body completionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ae := apierr.InvalidInput(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	req := completion.Request{
		UserID:   rd.UserID,
		ClientIP: rd.ClientIP,
		Prompt:   body.Prompt,
		CompressorOptions: compressor.Options{
			MessageType: body.MessageType,
			Complexity:  body.Complexity,
		},
	}
	if body.IntelligenceContext != nil {
		req.IntelligenceContext = &compressor.IntelligenceContext{
			Micro:     body.IntelligenceContext.Micro,
			Medium:    body.IntelligenceContext.Medium,
			Macro:     body.IntelligenceContext.Macro,
			Synthesis: body.IntelligenceContext.Synthesis,
		}
	}

	streaming := body.Stream == nil || *body.Stream
	start := time.Now()

	if streaming {
		relay := sse.New(c)
		result, err := ch.orchestrator.Run(c.Request.Context(), req, relay)
		if ch.metrics != nil {
			dur := time.Since(start)
			if result != nil {
				ch.metrics.ObserveCompletion(string(result.State), dur)
			}
		}
		if err != nil && result != nil && result.State == completion.StateRejectedInput {
			ae := apierr.As(err)
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		if err != nil && result != nil && (result.State == completion.StateRejectedLimit || result.State == completion.StateInternalError || result.State == completion.StateUpstreamFailedPreByte) {
			// Orchestrator returned before opening the sink: report as a
			// normal JSON error, not a half-open SSE stream.
			ae := apierr.As(err)
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		// Any other outcome has already been written to the wire by the
		// orchestrator (content frames, error frame, [DONE]); nothing more
		// to do here.
		return
	}

	sink := completion.NewBufferSink()
	result, err := ch.orchestrator.Run(c.Request.Context(), req, sink)
	if ch.metrics != nil {
		dur := time.Since(start)
		if result != nil {
			ch.metrics.ObserveCompletion(string(result.State), dur)
		}
	}
	if err != nil && (result == nil || result.State == completion.StateRejectedInput || result.State == completion.StateRejectedLimit || result.State == completion.StateInternalError || result.State == completion.StateUpstreamFailed || result.State == completion.StateUpstreamFailedPreByte) {
		ae := apierr.As(err)
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	payload := gin.H{"content": sink.Content()}
	if sink.Err() != "" {
		payload["error"] = true
		payload["message"] = sink.Err()
	}
	if result != nil {
		if result.Emotion != nil {
			payload["emotion"] = result.Emotion
		}
		if result.Task != nil {
			payload["task"] = result.Task
		}
	}
	response.RespondOK(c, payload)
}
