// Package call simulates an active phone call: a one-per-second elapsed
// ticker from activation, and a (contact, duration) summary on hang-up.
package call

import (
	"errors"
	"sync"
	"time"

	"github.com/callnudge/call-nudge/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrCallActive is returned when starting a call while one is active
	ErrCallActive = errors.New("a call is already active")
	// ErrNoActiveCall is returned when hanging up with no active call
	ErrNoActiveCall = errors.New("no active call")
)

// TickFunc receives the elapsed seconds on every tick. May be nil.
type TickFunc func(elapsed int)

// session is one active call. The ticker goroutine stops when done closes,
// so hang-up never leaves an orphaned timer behind.
type session struct {
	contact   string
	direction models.CallDirection
	startTime time.Time
	elapsed   int
	done      chan struct{}
}

// Manager tracks at most one active call session.
type Manager struct {
	mu      sync.Mutex
	active  *session
	onTick  TickFunc
	tick    time.Duration
	logger  *zap.Logger
}

// NewManager creates a call manager with a 1 s tick.
func NewManager(logger *zap.Logger, onTick TickFunc) *Manager {
	return &Manager{
		onTick: onTick,
		tick:   time.Second,
		logger: logger,
	}
}

// SetTickInterval overrides the tick interval (tests).
func (m *Manager) SetTickInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick = d
}

// Start activates a call for the given contact. Fails if a call is active.
func (m *Manager) Start(contact string, direction models.CallDirection) (models.CallState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return models.CallState{}, ErrCallActive
	}
	if contact == "" {
		contact = "Unknown"
	}
	if direction == "" {
		direction = models.CallDirectionOutgoing
	}

	s := &session{
		contact:   contact,
		direction: direction,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
	m.active = s
	go m.run(s)

	m.logger.Info("call_started",
		zap.String("contact", contact),
		zap.String("direction", string(direction)),
	)
	return m.stateLocked(), nil
}

// run drives the elapsed-seconds ticker for one session.
func (m *Manager) run(s *session) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			if m.active != s {
				m.mu.Unlock()
				return
			}
			s.elapsed++
			elapsed := s.elapsed
			onTick := m.onTick
			m.mu.Unlock()
			if onTick != nil {
				onTick(elapsed)
			}
		case <-s.done:
			return
		}
	}
}

// HangUp ends the active call, stops its ticker, resets state and returns
// the summary.
func (m *Manager) HangUp() (models.CallSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return models.CallSummary{}, ErrNoActiveCall
	}
	close(s.done)
	m.active = nil

	summary := models.CallSummary{Contact: s.contact, Duration: s.elapsed}
	m.logger.Info("call_ended",
		zap.String("contact", summary.Contact),
		zap.Int("duration_s", summary.Duration),
	)
	return summary, nil
}

// State returns the current call state (reset defaults when inactive).
func (m *Manager) State() models.CallState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() models.CallState {
	if m.active == nil {
		return models.InactiveCallState()
	}
	start := m.active.startTime.UnixMilli()
	return models.CallState{
		IsActive:    true,
		StartTime:   &start,
		Duration:    m.active.elapsed,
		Direction:   m.active.direction,
		ContactName: m.active.contact,
	}
}

// Active reports whether a call is in progress.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}
