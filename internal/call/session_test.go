package call

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
)

func TestStartAndHangUp(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop(), nil)

	state, err := m.Start("Mike Chen", models.CallDirectionIncoming)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !state.IsActive {
		t.Error("Expected call to be active")
	}
	if state.ContactName != "Mike Chen" {
		t.Errorf("Expected contact 'Mike Chen', got '%s'", state.ContactName)
	}
	if state.Direction != models.CallDirectionIncoming {
		t.Errorf("Expected incoming direction, got %s", state.Direction)
	}
	if state.StartTime == nil {
		t.Error("Expected start time to be set")
	}

	summary, err := m.HangUp()
	if err != nil {
		t.Fatalf("HangUp failed: %v", err)
	}
	if summary.Contact != "Mike Chen" {
		t.Errorf("Expected summary contact 'Mike Chen', got '%s'", summary.Contact)
	}
	// An immediate hang-up reports zero elapsed seconds
	if summary.Duration != 0 {
		t.Errorf("Expected duration 0, got %d", summary.Duration)
	}

	after := m.State()
	if after.IsActive {
		t.Error("Expected inactive state after hang-up")
	}
	if after.Duration != 0 || after.StartTime != nil {
		t.Error("Expected reset state after hang-up")
	}
}

func TestStartDefaults(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop(), nil)

	state, err := m.Start("", "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if state.ContactName != "Unknown" {
		t.Errorf("Expected contact 'Unknown', got '%s'", state.ContactName)
	}
	if state.Direction != models.CallDirectionOutgoing {
		t.Errorf("Expected outgoing direction, got %s", state.Direction)
	}
}

func TestStartWhileActive(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop(), nil)
	if _, err := m.Start("Alice", models.CallDirectionOutgoing); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := m.Start("Bob", models.CallDirectionOutgoing); !errors.Is(err, ErrCallActive) {
		t.Errorf("Expected ErrCallActive, got %v", err)
	}
}

func TestHangUpWithoutCall(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop(), nil)
	if _, err := m.HangUp(); !errors.Is(err, ErrNoActiveCall) {
		t.Errorf("Expected ErrNoActiveCall, got %v", err)
	}
}

func TestTickerReportsElapsed(t *testing.T) {
	t.Parallel()

	ticks := make(chan int, 64)
	m := NewManager(zap.NewNop(), func(elapsed int) {
		ticks <- elapsed
	})
	m.SetTickInterval(5 * time.Millisecond)

	if _, err := m.Start("Alice", models.CallDirectionOutgoing); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case first := <-ticks:
		if first != 1 {
			t.Errorf("Expected first tick to report 1, got %d", first)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for first tick")
	}

	summary, err := m.HangUp()
	if err != nil {
		t.Fatalf("HangUp failed: %v", err)
	}
	if summary.Duration < 1 {
		t.Errorf("Expected at least 1 elapsed second, got %d", summary.Duration)
	}
}
