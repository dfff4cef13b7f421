// Package sse implements C7: it wraps a completion's delta sequence as an
// SSE response, filtering in-band markers from the wire while still letting
// the extractor see them in the accumulated buffer.
package sse

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/completion/metadata"
)

// Relay writes SSE frames on top of a gin response writer.
type Relay struct {
	c       *gin.Context
	w       gin.ResponseWriter
	flusher http.Flusher
}

// New returns a Relay bound to c without committing any response headers.
// The orchestrator calls Open only once the upstream connection succeeds,
// so a pre-byte upstream failure can still be reported as a plain error
// response, per spec.md §4.8's "failure before any byte" rule.
func New(c *gin.Context) *Relay {
	return &Relay{c: c}
}

// Open commits the SSE headers, per spec.md §4.7.
func (r *Relay) Open() error {
	r.c.Writer.Header().Set("Content-Type", "text/event-stream")
	r.c.Writer.Header().Set("Cache-Control", "no-cache")
	r.c.Writer.Header().Set("Connection", "keep-alive")
	r.c.Writer.Header().Set("X-Accel-Buffering", "no")
	r.c.Writer.WriteHeaderNow()
	r.w = r.c.Writer
	r.flusher, _ = r.c.Writer.(http.Flusher)
	return nil
}

// framePayload is one of {content:string} or {error:true, message:string},
// per spec.md §6.
type framePayload struct {
	Content string `json:"content,omitempty"`
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SendContent emits a content delta. The orchestrator only ever passes
// content already filtered against the accumulated buffer (so a marker
// split across deltas can't leak a fragment here); the literal check below
// is a cheap second layer in case a caller ever forwards something raw.
func (r *Relay) SendContent(content string) error {
	if metadata.ContainsMarkerLiteral(content) {
		return nil
	}
	return r.writeFrame(framePayload{Content: content})
}

// SendError writes the mid-stream error frame. The caller must still call
// Done afterward to emit the terminal event.
func (r *Relay) SendError(message string) error {
	return r.writeFrame(framePayload{Error: true, Message: message})
}

// Done writes the terminal "data: [DONE]\n\n" line and ends the stream.
func (r *Relay) Done() error {
	_, err := r.w.Write([]byte("data: [DONE]\n\n"))
	r.flush()
	return err
}

func (r *Relay) writeFrame(p framePayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if _, err := r.w.Write([]byte("event: message\ndata: ")); err != nil {
		return err
	}
	if _, err := r.w.Write(raw); err != nil {
		return err
	}
	if _, err := r.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	r.flush()
	return nil
}

func (r *Relay) flush() {
	if r.flusher != nil {
		r.flusher.Flush()
	}
}
