package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func closeLimiter(t *testing.T, w *WindowLimiter) {
	t.Helper()
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestWindowLimiterAllowUnderCeiling(t *testing.T) {
	w := NewWindowLimiter(5, time.Minute)
	defer closeLimiter(t, w)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ok, err := w.Allow(ctx, "k1")
		if err != nil {
			t.Fatalf("Allow returned error on request %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("expected Allow to return true for request %d (within ceiling)", i)
		}
	}
}

func TestWindowLimiterDenyOverCeiling(t *testing.T) {
	w := NewWindowLimiter(3, time.Minute)
	defer closeLimiter(t, w)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if ok, _ := w.Allow(ctx, "k1"); !ok {
			t.Fatalf("expected Allow=true for request %d", i)
		}
	}

	// The (N+1)-th request within the window is denied.
	ok, err := w.Allow(ctx, "k1")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if ok {
		t.Fatal("expected Allow=false after ceiling reached")
	}
}

func TestWindowLimiterAdmitsAfterWindowElapses(t *testing.T) {
	w := NewWindowLimiter(1, 20*time.Millisecond)
	defer closeLimiter(t, w)

	ctx := context.Background()
	if ok, _ := w.Allow(ctx, "k1"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := w.Allow(ctx, "k1"); ok {
		t.Fatal("second request inside window should be denied")
	}

	time.Sleep(30 * time.Millisecond)

	ok, err := w.Allow(ctx, "k1")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if !ok {
		t.Fatal("request after window elapsed should pass")
	}
}

func TestWindowLimiterKeysIndependent(t *testing.T) {
	w := NewWindowLimiter(1, time.Minute)
	defer closeLimiter(t, w)

	ctx := context.Background()
	if ok, _ := w.Allow(ctx, "a"); !ok {
		t.Fatal("key a should pass")
	}
	if ok, _ := w.Allow(ctx, "b"); !ok {
		t.Fatal("key b should be unaffected by key a")
	}
	if ok, _ := w.Allow(ctx, "a"); ok {
		t.Fatal("key a should be denied")
	}
}

func TestWindowLimiterEvictStale(t *testing.T) {
	w := NewWindowLimiter(1, 5*time.Millisecond)
	defer closeLimiter(t, w)

	_, _ = w.Allow(context.Background(), "stale")
	time.Sleep(10 * time.Millisecond)
	w.evictStale()

	w.mu.Lock()
	_, exists := w.entries["stale"]
	w.mu.Unlock()
	if exists {
		t.Fatal("stale key should be evicted")
	}
}

func TestMiddlewareEnforces(t *testing.T) {
	w := NewWindowLimiter(1, time.Minute)
	defer closeLimiter(t, w)

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusAccepted)
	})
	handler := Middleware(w, IPKeyFunc)(next)

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first request: got %d, want 202", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
}

func TestMiddlewareSkipsEmptyKey(t *testing.T) {
	w := NewWindowLimiter(0, time.Minute) // Ceiling 0: every keyed request denied.
	defer closeLimiter(t, w)

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	handler := Middleware(w, func(*http.Request) string { return "" })(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
}

func TestIPKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	if got := IPKeyFunc(r); got != "192.0.2.7" {
		t.Fatalf("got %q, want 192.0.2.7", got)
	}
}
