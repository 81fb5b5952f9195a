package llm

import (
	"context"
	"strings"
	"sync"
)

// ScriptedClient is a deterministic in-memory Client for tests.
//
// Reply decides the output for each request; when nil, a generic echo of
// the input is returned. Stream splits the reply into word chunks so delta
// handling is exercised. Every request is recorded for assertions.
type ScriptedClient struct {
	// Reply computes the response for a request. It runs on the calling
	// goroutine, so tests can block inside it to simulate a slow model.
	Reply func(req Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

// Calls returns a copy of every request seen so far.
func (c *ScriptedClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.calls...)
}

func (c *ScriptedClient) record(req Request) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()
}

func (c *ScriptedClient) reply(req Request) (string, error) {
	if c.Reply != nil {
		return c.Reply(req)
	}
	return "Scripted response to: " + req.Input, nil
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	c.record(req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.reply(req)
}

// Stream implements Client, emitting the reply as word-sized deltas.
func (c *ScriptedClient) Stream(ctx context.Context, req Request, onDelta func(delta string)) (string, error) {
	c.record(req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := c.reply(req)
	if err != nil {
		return "", err
	}
	if onDelta != nil {
		words := strings.SplitAfter(full, " ")
		for _, w := range words {
			if w == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			onDelta(w)
		}
	}
	return full, nil
}
