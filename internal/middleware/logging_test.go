package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped := Logging(logger)(handler)

	req := httptest.NewRequest("GET", "/api/v1/reminders", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 http_request entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" {
		t.Errorf("Expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/api/v1/reminders" {
		t.Errorf("Expected the request path, got %v", fields["path"])
	}
	if fields["status_code"] != int64(http.StatusTeapot) {
		t.Errorf("Expected captured status code, got %v", fields["status_code"])
	}
}
