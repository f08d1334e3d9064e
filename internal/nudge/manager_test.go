package nudge

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
)

func newTestManager(t *testing.T, delay time.Duration) (*Manager, *saveRecorder) {
	t.Helper()
	rec := &saveRecorder{}
	m := NewManager(testConfig(), delay, &stubParser{}, rec.save, nil, zap.NewNop())
	t.Cleanup(m.Shutdown)
	return m, rec
}

// waitForDialog polls until the manager has an open dialog
func waitForDialog(t *testing.T, m *Manager) *Dialog {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d := m.Active(); d != nil {
			return d
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for dialog to open")
	return nil
}

func TestShortCallNeverSchedules(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, time.Millisecond)

	scheduled := m.HandleCallSummary(models.CallSummary{Contact: "Alice", Duration: 9}, 10)
	if scheduled {
		t.Error("Expected short call to be skipped")
	}

	time.Sleep(20 * time.Millisecond)
	if m.Active() != nil {
		t.Error("Expected no dialog for a short call")
	}
}

func TestEligibleCallSchedulesDialog(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, time.Millisecond)

	tests := []struct {
		name     string
		duration int
		want     bool
	}{
		{"exactly at threshold", 10, true},
		{"above threshold", 11, true},
	}

	for _, tt := range tests {
		// Sequential: the manager allows one dialog at a time
		scheduled := m.HandleCallSummary(models.CallSummary{Contact: "Alice", Duration: tt.duration}, 10)
		if scheduled != tt.want {
			t.Errorf("%s: HandleCallSummary = %v, want %v", tt.name, scheduled, tt.want)
		}
		if tt.want {
			d := waitForDialog(t, m)
			if d.Contact() != "Alice" {
				t.Errorf("%s: Expected dialog for Alice, got %s", tt.name, d.Contact())
			}
			if err := d.Dismiss(); err != nil {
				t.Fatalf("%s: Dismiss failed: %v", tt.name, err)
			}
		}
	}
}

func TestSecondSummaryDebounced(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, 50*time.Millisecond)

	if !m.HandleCallSummary(models.CallSummary{Contact: "Alice", Duration: 30}, 10) {
		t.Fatal("Expected first summary to schedule")
	}
	// Second summary arrives while the first is still pending
	if m.HandleCallSummary(models.CallSummary{Contact: "Bob", Duration: 30}, 10) {
		t.Error("Expected second summary to be debounced")
	}

	d := waitForDialog(t, m)
	if d.Contact() != "Alice" {
		t.Errorf("Expected the first contact's dialog, got %s", d.Contact())
	}

	// Still suppressed while the dialog is open
	if m.HandleCallSummary(models.CallSummary{Contact: "Carol", Duration: 30}, 10) {
		t.Error("Expected summary to be suppressed while a dialog is open")
	}
}

func TestOpenImmediate(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, time.Hour)

	d := m.Open("Mike Chen")
	if d == nil {
		t.Fatal("Expected an immediate dialog")
	}
	if m.Open("Someone Else") != nil {
		t.Error("Expected second open to be rejected")
	}

	if err := d.Dismiss(); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	if m.Active() != nil {
		t.Error("Expected no active dialog after dismissal")
	}
}

func TestCancelPending(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, 20*time.Millisecond)

	if !m.HandleCallSummary(models.CallSummary{Contact: "Alice", Duration: 30}, 10) {
		t.Fatal("Expected summary to schedule")
	}
	m.CancelPending()

	time.Sleep(60 * time.Millisecond)
	if m.Active() != nil {
		t.Error("Expected cancelled dialog never to open")
	}
}
