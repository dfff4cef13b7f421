package sse

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/completion", nil)
	return c, w
}

func TestNewDoesNotCommitHeadersUntilOpen(t *testing.T) {
	c, w := newTestContext()
	r := New(c)
	if w.Header().Get("Content-Type") == "text/event-stream" {
		t.Fatal("expected headers to be uncommitted before Open")
	}
	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream content type, got %q", ct)
	}
}

func TestSendContentFiltersMarkerLiterals(t *testing.T) {
	c, w := newTestContext()
	r := New(c)
	_ = r.Open()

	if err := r.SendContent("hello"); err != nil {
		t.Fatalf("SendContent: %v", err)
	}
	if err := r.SendContent(`EMOTION_LOG: {"emotion":"sad"}`); err != nil {
		t.Fatalf("SendContent: %v", err)
	}
	body := w.Body.String()
	if !strings.Contains(body, "hello") {
		t.Fatalf("expected body to contain forwarded content, got %q", body)
	}
	if strings.Contains(body, "EMOTION_LOG") {
		t.Fatalf("expected marker-containing delta to be filtered, got %q", body)
	}
}

func TestDoneWritesTerminalEvent(t *testing.T) {
	c, w := newTestContext()
	r := New(c)
	_ = r.Open()
	if err := r.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if !strings.Contains(w.Body.String(), "data: [DONE]") {
		t.Fatalf("expected terminal [DONE] frame, got %q", w.Body.String())
	}
}
