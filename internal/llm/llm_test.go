package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedComplete(t *testing.T) {
	c := &ScriptedClient{}
	out, err := c.Complete(context.Background(), Request{Model: "m", Input: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Scripted response to: hello", out)
	require.Len(t, c.Calls(), 1)
	assert.Equal(t, "m", c.Calls()[0].Model)
}

func TestScriptedStreamDeltasAssemble(t *testing.T) {
	c := &ScriptedClient{
		Reply: func(Request) (string, error) { return "one two three", nil },
	}

	var deltas []string
	out, err := c.Stream(context.Background(), Request{Input: "q"}, func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.Equal(t, "one two three", out)
	assert.Equal(t, "one two three", strings.Join(deltas, ""))
	assert.Greater(t, len(deltas), 1)
}

func TestScriptedError(t *testing.T) {
	wantErr := errors.New("model exploded")
	c := &ScriptedClient{
		Reply: func(Request) (string, error) { return "", wantErr },
	}
	_, err := c.Complete(context.Background(), Request{Input: "q"})
	assert.ErrorIs(t, err, wantErr)
	_, err = c.Stream(context.Background(), Request{Input: "q"}, nil)
	assert.ErrorIs(t, err, wantErr)
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, isRetriable(&openai.Error{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, isRetriable(&openai.Error{StatusCode: http.StatusBadGateway}))
	assert.False(t, isRetriable(&openai.Error{StatusCode: http.StatusUnauthorized}))
	assert.False(t, isRetriable(&openai.Error{StatusCode: http.StatusBadRequest}))
	assert.False(t, isRetriable(errors.New("plain error")))
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("wrapped: %w", &openai.Error{StatusCode: http.StatusBadRequest})
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &openai.Error{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return &openai.Error{StatusCode: http.StatusInternalServerError}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestBuildParamsDefaults(t *testing.T) {
	params := buildParams(Request{Model: "gpt-4o-mini", Instructions: "sys", Input: "hi"})
	assert.Equal(t, "gpt-4o-mini", string(params.Model))
	require.Len(t, params.Messages, 2)
	assert.Equal(t, defaultTemperature, params.Temperature.Value)
	assert.Equal(t, int64(defaultMaxTokens), params.MaxCompletionTokens.Value)

	// No instructions: single user message.
	params = buildParams(Request{Model: "m", Input: "hi"})
	assert.Len(t, params.Messages, 1)
}
