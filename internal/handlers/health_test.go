package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/callnudge/call-nudge/internal/store"
)

// failingStore always reports unhealthy
type failingStore struct{}

func (s *failingStore) Load(context.Context, string) ([]byte, error) { return nil, store.ErrNotFound }
func (s *failingStore) Save(context.Context, string, []byte) error   { return nil }
func (s *failingStore) Close() error                                 { return nil }
func (s *failingStore) HealthCheck(context.Context) error {
	return fmt.Errorf("connection refused")
}

func TestHealthCheckBasic(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(store.NewMemoryStore(), nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
	if resp.Checks != nil {
		t.Error("Basic mode should not include checks")
	}
}

func TestHealthCheckExtended(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(store.NewMemoryStore(), nil)

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if resp.Checks["store"] != "healthy" {
		t.Errorf("Expected healthy store check, got %q", resp.Checks["store"])
	}
	// No queue configured, no queue check
	if _, ok := resp.Checks["queue"]; ok {
		t.Error("Expected no queue check without a queue")
	}
}

func TestHealthCheckExtendedUnhealthy(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(&failingStore{}, nil)

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Expected unhealthy, got %s", resp.Status)
	}
}
