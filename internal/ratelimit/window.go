package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter implements Limiter with a fixed trailing window per key.
//
// Each key holds the timestamps of its recent requests; entries older than
// the window are pruned lazily on each check. A background goroutine evicts
// idle keys to bound memory. Call Close to stop it.
type WindowLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string][]time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewWindowLimiter creates a fixed-window limiter allowing limit requests
// per key within each trailing window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	w := &WindowLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string][]time.Time),
		done:    make(chan struct{}),
	}
	go w.cleanup()
	return w
}

// Allow records the request and returns true if the key has capacity left
// in the current window.
func (w *WindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.window)

	recent := w.entries[key][:0]
	for _, t := range w.entries[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= w.limit {
		w.entries[key] = recent
		return false, nil
	}

	w.entries[key] = append(recent, now)
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (w *WindowLimiter) Close() error {
	w.stopOnce.Do(func() { close(w.done) })
	return nil
}

// cleanup periodically evicts keys whose entries have all aged out.
func (w *WindowLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.evictStale()
		}
	}
}

func (w *WindowLimiter) evictStale() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.window)
	for key, times := range w.entries {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(w.entries, key)
		}
	}
}
