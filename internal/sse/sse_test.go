package sse

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	NewWriter(rec)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestOpenFrameFirst(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Open())
	require.NoError(t, w.SendJSON(map[string]string{"delta": "hi"}))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: open\n\n"))
	assert.Contains(t, body, `data: {"delta":"hi"}`+"\n\n")
	assert.True(t, rec.Flushed)
}

func TestFramesAreNewlineDelimited(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.SendJSON(map[string]any{"done": true}))
	require.NoError(t, w.SendJSON(map[string]any{"n": 2}))

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 2)
	assert.Equal(t, `data: {"done":true}`, frames[0])
	assert.Equal(t, `data: {"n":2}`, frames[1])
}

func TestSendJSONRejectsUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	err := w.SendJSON(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}
