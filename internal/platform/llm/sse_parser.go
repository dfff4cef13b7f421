package llm

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// sseParser reads the upstream's wire framing line-by-line: lines prefixed
// with "data: " carry a JSON object (or the literal [DONE]); incomplete
// trailing bytes are held by bufio.Reader's internal buffer until the next
// network read, and a blank line is not significant for this wire format
// (unlike the hub's fan-out SSE, the upstream emits one data line per
// event with no separate "event:" line).
type sseParser struct {
	br *bufio.Reader
}

func newSSEParser(r io.Reader) *sseParser {
	return &sseParser{br: bufio.NewReader(r)}
}

// nextDataLine returns the next "data: <payload>" line's payload, skipping
// blank lines and comment lines. It returns io.EOF once the underlying
// reader is exhausted with no further data line.
func (p *sseParser) nextDataLine(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := p.br.ReadString('\n')
		if err != nil && line == "" {
			return "", io.EOF
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, ":") {
			if err != nil {
				return "", io.EOF
			}
			continue
		}
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			return payload, nil
		}
		// Any other line (e.g. "event: message") is framing noise for our
		// purposes; keep scanning.
		if err != nil {
			return "", io.EOF
		}
	}
}
