package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/nudge"
	"github.com/callnudge/call-nudge/internal/state"
)

func newNudgeFixture(t *testing.T, controller *state.Controller, parser nudge.Parser) (*mux.Router, *nudge.Manager) {
	t.Helper()

	cfg := nudge.DefaultConfig()
	cfg.TickInterval = time.Hour
	save := func(ctx context.Context, task string, timestamp int64, contact string) error {
		_, err := controller.AddReminder(ctx, task, timestamp, contact)
		return err
	}
	nudges := nudge.NewManager(cfg, time.Hour, parser, save, nil, zap.NewNop())
	t.Cleanup(nudges.Shutdown)

	h := NewNudgeHandler(nudges, zap.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/nudge/session", h.Session).Methods("GET")
	r.HandleFunc("/nudge/session/confirm", h.Confirm).Methods("POST")
	r.HandleFunc("/nudge/session/decline", h.Decline).Methods("POST")
	r.HandleFunc("/nudge/session/dismiss", h.Dismiss).Methods("POST")
	r.HandleFunc("/nudge/session/edit", h.Edit).Methods("POST")
	r.HandleFunc("/nudge/session/submit", h.Submit).Methods("POST")
	r.HandleFunc("/nudge/session/transcript", h.Transcript).Methods("POST")
	r.HandleFunc("/nudge/session/save", h.Save).Methods("POST")
	return r, nudges
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) nudge.Snapshot {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var snap nudge.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return snap
}

// waitForReview polls the session route until the async parse lands in review
func waitForReview(t *testing.T, router *mux.Router) nudge.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, router, "GET", "/nudge/session", nil)
		if w.Code == http.StatusOK {
			snap := decodeSnapshot(t, w)
			if snap.State == nudge.StateReview {
				return snap
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Dialog never reached review")
	return nudge.Snapshot{}
}

func TestNudgeSessionNotFound(t *testing.T) {
	t.Parallel()

	router, _ := newNudgeFixture(t, newTestController(t), &stubParser{})

	paths := []string{
		"/nudge/session/confirm",
		"/nudge/session/decline",
		"/nudge/session/dismiss",
		"/nudge/session/edit",
		"/nudge/session/save",
	}
	w := doJSON(t, router, "GET", "/nudge/session", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with no dialog, got %d", w.Code)
	}
	for _, path := range paths {
		w := doJSON(t, router, "POST", path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %s with no dialog, got %d", path, w.Code)
		}
	}
}

func TestNudgeSessionSnapshot(t *testing.T) {
	t.Parallel()

	router, nudges := newNudgeFixture(t, newTestController(t), &stubParser{})
	nudges.Open("Sarah Johnson")

	w := doJSON(t, router, "GET", "/nudge/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w)
	if snap.State != nudge.StateConfirm {
		t.Errorf("Expected confirm state, got %s", snap.State)
	}
	if snap.Contact != "Sarah Johnson" {
		t.Errorf("Expected contact, got %q", snap.Contact)
	}
	if snap.Countdown != 30 {
		t.Errorf("Expected 30 s countdown, got %d", snap.Countdown)
	}
	if snap.PromptText == "" {
		t.Error("Expected a prompt text for the confirm state")
	}
}

func TestNudgeFullFlow(t *testing.T) {
	t.Parallel()

	controller := newTestController(t)
	scheduled := time.Now().Add(2 * time.Hour).UnixMilli()
	parser := &stubParser{result: &models.ParsedReminder{Task: "send the notes", Timestamp: scheduled, Confidence: 0.8}}
	router, nudges := newNudgeFixture(t, controller, parser)
	nudges.Open("Alice")

	w := doJSON(t, router, "POST", "/nudge/session/confirm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Confirm: expected 200, got %d", w.Code)
	}
	if snap := decodeSnapshot(t, w); snap.State != nudge.StateInput {
		t.Fatalf("Expected input state after confirm, got %s", snap.State)
	}

	w = doJSON(t, router, "POST", "/nudge/session/submit", map[string]any{"text": "send the notes in two hours"})
	if w.Code != http.StatusOK {
		t.Fatalf("Submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	snap := waitForReview(t, router)
	if snap.Draft == nil || snap.Draft.Task != "send the notes" {
		t.Fatalf("Expected draft in review, got %+v", snap.Draft)
	}

	w = doJSON(t, router, "POST", "/nudge/session/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Save: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if snap := decodeSnapshot(t, w); snap.State != nudge.StateClosed || snap.CloseReason != nudge.CloseReasonSaved {
		t.Errorf("Expected saved close, got %s/%s", snap.State, snap.CloseReason)
	}

	list := controller.ListReminders(nil)
	if len(list) != 1 {
		t.Fatalf("Expected 1 reminder, got %d", len(list))
	}
	if list[0].Text != "send the notes" || list[0].ContactName != "Alice" || list[0].Timestamp != scheduled {
		t.Errorf("Unexpected saved reminder: %+v", list[0])
	}

	// The closed dialog is gone from the API surface
	w = doJSON(t, router, "GET", "/nudge/session", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after close, got %d", w.Code)
	}
}

func TestNudgeActionConflicts(t *testing.T) {
	t.Parallel()

	router, nudges := newNudgeFixture(t, newTestController(t), &stubParser{})
	nudges.Open("Alice")

	// Edit and save do not apply to the confirm state
	w := doJSON(t, router, "POST", "/nudge/session/edit", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for edit in confirm, got %d", w.Code)
	}
	w = doJSON(t, router, "POST", "/nudge/session/save", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for save in confirm, got %d", w.Code)
	}
	w = doJSON(t, router, "POST", "/nudge/session/submit", map[string]any{"text": "too early"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for submit in confirm, got %d", w.Code)
	}
}

func TestNudgeSubmitEmptyText(t *testing.T) {
	t.Parallel()

	router, nudges := newNudgeFixture(t, newTestController(t), &stubParser{})
	dialog := nudges.Open("Alice")
	if err := dialog.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	w := doJSON(t, router, "POST", "/nudge/session/submit", map[string]any{"text": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty submit, got %d", w.Code)
	}
}

func TestNudgeDecline(t *testing.T) {
	t.Parallel()

	controller := newTestController(t)
	router, nudges := newNudgeFixture(t, controller, &stubParser{})
	nudges.Open("Alice")

	w := doJSON(t, router, "POST", "/nudge/session/decline", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if snap := decodeSnapshot(t, w); snap.CloseReason != nudge.CloseReasonDeclined {
		t.Errorf("Expected declined close reason, got %s", snap.CloseReason)
	}
	if controller.Count() != 0 {
		t.Errorf("Expected no reminder after decline, got %d", controller.Count())
	}
}

func TestNudgeTranscriptConfirm(t *testing.T) {
	t.Parallel()

	router, nudges := newNudgeFixture(t, newTestController(t), &stubParser{})
	nudges.Open("Alice")

	// Unrecognized speech is a no-op: still confirm
	w := doJSON(t, router, "POST", "/nudge/session/transcript", map[string]any{"text": "um let me think"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if snap := decodeSnapshot(t, w); snap.State != nudge.StateConfirm {
		t.Errorf("Expected confirm after unrecognized speech, got %s", snap.State)
	}

	w = doJSON(t, router, "POST", "/nudge/session/transcript", map[string]any{"text": "Yes, please."})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if snap := decodeSnapshot(t, w); snap.State != nudge.StateInput {
		t.Errorf("Expected input after yes, got %s", snap.State)
	}
}
