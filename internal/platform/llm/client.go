// Package llm implements C6: a streaming client for the upstream completion
// endpoint. It exposes a lazy, finite, non-restartable sequence of content
// deltas terminated by an explicit end-of-stream marker.
package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	cctx "github.com/yungbote/neurobridge-backend/internal/completion/context"
	"github.com/yungbote/neurobridge-backend/internal/platform/apierr"
)

// Config controls connection policy and request defaults (spec.md §4.6's
// "keep-alive, pooled, bounded max sockets, TLS verification configurable").
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	VerifyTLS    bool
	MaxIdleConns int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 50
	}
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS},
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			// No top-level Timeout: the orchestrator owns the hard-stream and
			// no-byte timers via ctx cancellation, per spec.md §4.8.
		},
	}
}

// Delta is one streamed content chunk.
type Delta struct {
	Content string
}

// Stream is the lazy sequence C6 exposes. Next blocks until the next delta
// arrives, the upstream signals [DONE], ctx is cancelled, or an error
// occurs. Calling Next after io.EOF-equivalent completion keeps returning
// (Delta{}, false, nil).
type Stream struct {
	body   io.ReadCloser
	parser *sseParser
	done   bool
}

// Close releases the underlying connection. Idempotent.
func (s *Stream) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}

// Next returns the next delta. ok is false once [DONE] has been observed or
// the stream ends without it (treated as a clean end-of-stream per spec.md
// §8's "zero bytes" boundary case).
func (s *Stream) Next(ctx context.Context) (Delta, bool, error) {
	if s.done {
		return Delta{}, false, nil
	}
	for {
		line, err := s.parser.nextDataLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				return Delta{}, false, nil
			}
			s.done = true
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Delta{}, false, apierr.UpstreamTimeout(ctxErr)
			}
			return Delta{}, false, apierr.UpstreamProtocol(err)
		}
		if line == "[DONE]" {
			s.done = true
			return Delta{}, false, nil
		}
		var payload struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			s.done = true
			return Delta{}, false, apierr.UpstreamProtocol(fmt.Errorf("malformed delta frame: %w", err))
		}
		if payload.Content == "" {
			continue
		}
		return Delta{Content: payload.Content}, true, nil
	}
}

type completionRequest struct {
	Model       string             `json:"model"`
	Messages    []cctx.Message     `json:"messages"`
	Stream      bool               `json:"stream"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

// Ping is a cheap reachability check for the upstream endpoint, used by
// the /health handler. It hits the models listing rather than issuing a
// real completion.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return nil
}

// StreamCompletion opens the streaming request and returns a Stream on
// success. Failure before any byte is classified per spec.md §4.6.
func (c *Client) StreamCompletion(ctx context.Context, messages []cctx.Message, temperature float64, maxTokens int) (*Stream, error) {
	reqBody := completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, apierr.UpstreamTimeout(err)
		}
		return nil, apierr.UpstreamUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apierr.UpstreamStatus(resp.StatusCode, fmt.Errorf("upstream status %d: %s", resp.StatusCode, body))
	}

	return &Stream{body: resp.Body, parser: newSSEParser(resp.Body)}, nil
}
