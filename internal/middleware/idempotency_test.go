package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seatsurge/ticketing/internal/middleware"
	"github.com/seatsurge/ticketing/internal/repository/postgres"
	"github.com/seatsurge/ticketing/internal/testutil"
)

func newCountingHandler(calls *atomic.Int32, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func TestIdempotency_NoKey_PassThrough(t *testing.T) {
	store := testutil.NewMockIdempotencyStore()
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusCreated, `{"ok":true}`))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", w.Code)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("expected handler called twice without a key, got %d", calls.Load())
	}
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	store := testutil.NewMockIdempotencyStore()
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusCreated, `{"ticket":"TKT-1"}`))

	first := httptest.NewRequest(http.MethodPost, "/purchase", nil)
	first.Header.Set("Idempotency-Key", "key-1")
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, first)

	second := httptest.NewRequest(http.MethodPost, "/purchase", nil)
	second.Header.Set("Idempotency-Key", "key-1")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, second)

	if calls.Load() != 1 {
		t.Errorf("expected handler called once, got %d", calls.Load())
	}
	if w2.Code != http.StatusCreated {
		t.Errorf("expected replayed 201, got %d", w2.Code)
	}
	if w2.Body.String() != w1.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", w2.Body.String(), w1.Body.String())
	}
	if w2.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("expected X-Idempotency-Replayed header on the second response")
	}
	if w1.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first response must not carry the replay header")
	}
}

func TestIdempotency_DistinctKeys(t *testing.T) {
	store := testutil.NewMockIdempotencyStore()
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusCreated, `{}`))

	for _, key := range []string{"key-1", "key-2"} {
		req := httptest.NewRequest(http.MethodPost, "/purchase", nil)
		req.Header.Set("Idempotency-Key", key)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if calls.Load() != 2 {
		t.Errorf("expected two distinct executions, got %d", calls.Load())
	}
}

func TestIdempotency_ServerErrorNotStored(t *testing.T) {
	store := testutil.NewMockIdempotencyStore()
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusInternalServerError, `{"error":"boom"}`))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/purchase", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if calls.Load() != 2 {
		t.Errorf("5xx responses must not be replayed; handler calls = %d", calls.Load())
	}
}

func TestIdempotency_ClientErrorIsStored(t *testing.T) {
	// Deterministic outcomes (e.g. sold out) replay like successes so a
	// retry does not hammer the purchase path.
	store := testutil.NewMockIdempotencyStore()
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusConflict, `{"code":"sold_out"}`))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/purchase", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if calls.Load() != 1 {
		t.Errorf("expected the 409 to replay, handler calls = %d", calls.Load())
	}
}

func TestIdempotency_StoreErrorFallsThrough(t *testing.T) {
	store := testutil.NewMockIdempotencyStore()
	store.GetFunc = func(_ context.Context, _ string) (*postgres.IdempotencyEntry, error) {
		return nil, errors.New("store down")
	}
	var calls atomic.Int32
	handler := middleware.Idempotency(store, time.Hour)(newCountingHandler(&calls, http.StatusCreated, `{}`))

	req := httptest.NewRequest(http.MethodPost, "/purchase", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("a broken store must not block the request, got %d", w.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("expected handler to run, calls = %d", calls.Load())
	}
}
