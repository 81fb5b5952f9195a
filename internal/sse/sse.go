// Package sse serializes an ordered event sequence onto a Server-Sent-Events
// wire stream. Each frame is flushed as soon as it is written; delivery is
// at-most-once with no replay after a disconnect.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Writer emits SSE frames over an HTTP response.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter prepares the response for streaming: sets the SSE headers and
// clears any server write deadline so a long-running stream is not cut off.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	rc.SetWriteDeadline(time.Time{}) //nolint:errcheck // unsupported deadlines are fine

	return &Writer{w: w, rc: rc}
}

// Open emits the initial open frame, committing the response headers. It is
// always the first frame so clients can tell "connected, nothing yet" from
// "never connected".
func (s *Writer) Open() error {
	if _, err := fmt.Fprint(s.w, "event: open\n\n"); err != nil {
		return fmt.Errorf("sse: write open frame: %w", err)
	}
	return s.flush()
}

// SendJSON emits one data frame carrying v as JSON and flushes it.
func (s *Writer) SendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("sse: write frame: %w", err)
	}
	return s.flush()
}

func (s *Writer) flush() error {
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("sse: flush: %w", err)
	}
	return nil
}
