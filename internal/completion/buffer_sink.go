package completion

import "strings"

// BufferSink accumulates deltas instead of writing them to the wire, for
// the non-streaming form of POST /completion (spec.md §6). The orchestrator
// still drives the same state machine; only the sink differs.
type BufferSink struct {
	buf strings.Builder
	err string
}

func NewBufferSink() *BufferSink { return &BufferSink{} }

func (s *BufferSink) Open() error { return nil }

func (s *BufferSink) SendContent(content string) error {
	s.buf.WriteString(content)
	return nil
}

func (s *BufferSink) SendError(message string) error {
	s.err = message
	return nil
}

func (s *BufferSink) Done() error { return nil }

// Content returns everything written via SendContent.
func (s *BufferSink) Content() string { return s.buf.String() }

// Err returns the message passed to SendError, if any.
func (s *BufferSink) Err() string { return s.err }
