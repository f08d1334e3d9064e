package nudge

import (
	"sync"
	"time"

	"github.com/callnudge/call-nudge/internal/models"
	"go.uber.org/zap"
)

// DefaultOpenDelay is how long after an eligible call end the dialog
// appears, so the user is not interrupted immediately.
const DefaultOpenDelay = 3 * time.Second

// Manager gates dialog creation: at most one dialog shown at a time, opened
// a fixed delay after a call whose duration met the configured threshold.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	delay   time.Duration
	active  *Dialog
	pending *time.Timer

	parser Parser
	save   SaveFunc
	sink   EventSink
	logger *zap.Logger
}

// NewManager creates a dialog manager.
func NewManager(cfg Config, delay time.Duration, parser Parser, save SaveFunc, sink EventSink, logger *zap.Logger) *Manager {
	if delay <= 0 {
		delay = DefaultOpenDelay
	}
	return &Manager{
		cfg:    cfg,
		delay:  delay,
		parser: parser,
		save:   save,
		sink:   sink,
		logger: logger,
	}
}

func (m *Manager) emit(event string, payload any) {
	if m.sink != nil {
		m.sink(event, payload)
	}
}

// HandleCallSummary schedules a dialog for the summary's contact after the
// fixed delay, if the call lasted at least minDuration seconds. A pending
// or open dialog suppresses scheduling; the call-active flag upstream keeps
// summaries from arriving while one is open.
func (m *Manager) HandleCallSummary(summary models.CallSummary, minDuration int) bool {
	if summary.Duration < minDuration {
		m.logger.Debug("nudge_skipped_short_call",
			zap.String("contact", summary.Contact),
			zap.Int("duration_s", summary.Duration),
			zap.Int("min_duration_s", minDuration),
		)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil || (m.active != nil && !m.active.Closed()) {
		m.logger.Warn("nudge_already_pending_or_open", zap.String("contact", summary.Contact))
		return false
	}

	contact := summary.Contact
	m.pending = time.AfterFunc(m.delay, func() {
		m.openScheduled(contact)
	})
	m.logger.Info("nudge_scheduled",
		zap.String("contact", contact),
		zap.Duration("delay", m.delay),
	)
	m.emit("nudge_scheduled", map[string]any{"contact": contact, "delaySeconds": int(m.delay.Seconds())})
	return true
}

func (m *Manager) openScheduled(contact string) {
	m.mu.Lock()
	m.pending = nil
	if m.active != nil && !m.active.Closed() {
		m.mu.Unlock()
		return
	}
	dialog := NewDialog(contact, m.cfg, m.parser, m.save, m.sink, m.logger)
	m.active = dialog
	m.mu.Unlock()
}

// Open opens a dialog immediately (bypassing the delay). Returns nil if one
// is already open.
func (m *Manager) Open(contact string) *Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.Closed() {
		return nil
	}
	dialog := NewDialog(contact, m.cfg, m.parser, m.save, m.sink, m.logger)
	m.active = dialog
	return dialog
}

// Active returns the open dialog, or nil.
func (m *Manager) Active() *Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.Closed() {
		return nil
	}
	return m.active
}

// CancelPending stops a scheduled-but-not-yet-open dialog.
func (m *Manager) CancelPending() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

// Shutdown cancels any pending timer and dismisses an open dialog.
func (m *Manager) Shutdown() {
	m.CancelPending()

	m.mu.Lock()
	active := m.active
	m.mu.Unlock()

	if active != nil && !active.Closed() {
		if err := active.Dismiss(); err != nil {
			m.logger.Debug("nudge_shutdown_dismiss_failed", zap.Error(err))
		}
	}
}
