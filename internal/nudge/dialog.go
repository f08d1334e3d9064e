// Package nudge implements the post-call prompt flow: a dialog state
// machine that turns a call summary into a confirmed reminder by voice or
// text, guarded by an auto-dismiss countdown.
package nudge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a dialog state
type State string

const (
	StateConfirm    State = "confirm"
	StateInput      State = "input"
	StateProcessing State = "processing"
	StateReview     State = "review"
	StateClosed     State = "closed"
)

// CloseReason records why a dialog closed
type CloseReason string

const (
	CloseReasonDismissed CloseReason = "dismissed"
	CloseReasonDeclined  CloseReason = "declined"
	CloseReasonExpired   CloseReason = "expired"
	CloseReasonSaved     CloseReason = "saved"
)

var (
	// ErrInvalidState is returned when an action does not apply to the
	// dialog's current state
	ErrInvalidState = errors.New("action not valid in current dialog state")
	// ErrEmptyInput is returned when submitting empty text
	ErrEmptyInput = errors.New("input text is empty")
	// ErrDialogClosed is returned for actions on a closed dialog
	ErrDialogClosed = errors.New("dialog is closed")
)

// Affirmative and negative keywords recognized from voice transcripts while
// the dialog awaits confirmation.
var (
	affirmativeKeywords = []string{"yes", "sure", "yeah"}
	negativeKeywords    = []string{"no", "skip", "cancel"}
)

// Config controls the dialog variant.
type Config struct {
	// RequireConfirm gates the extra confirm state. When false the dialog
	// starts directly in input (the input-first variant).
	RequireConfirm bool
	// ConfirmCountdown is the auto-dismiss countdown entering confirm (seconds)
	ConfirmCountdown int
	// InputCountdown is the countdown after yes, and the initial countdown
	// of the input-first variant (seconds)
	InputCountdown int
	// ParseTimeout bounds a single parser call
	ParseTimeout time.Duration
	// TickInterval is the countdown tick period; defaults to one second
	TickInterval time.Duration
}

// DefaultConfig returns the confirm-first variant: 30 s to answer the
// prompt, extended to 45 s for dictation or typing.
func DefaultConfig() Config {
	return Config{
		RequireConfirm:   true,
		ConfirmCountdown: 30,
		InputCountdown:   45,
		ParseTimeout:     30 * time.Second,
	}
}

// Parser extracts a structured task and trigger time from free text.
type Parser interface {
	ParseReminder(ctx context.Context, text string, now time.Time) (*models.ParsedReminder, error)
}

// SaveFunc persists a confirmed draft as a reminder.
type SaveFunc func(ctx context.Context, task string, timestamp int64, contact string) error

// EventSink receives dialog lifecycle events. May be nil.
type EventSink func(event string, payload any)

// Draft is the parsed task/time pair held in review before confirmation.
type Draft struct {
	Task      string `json:"task"`
	Timestamp int64  `json:"timestamp"`
}

// Snapshot is a point-in-time view of a dialog for the API surface.
type Snapshot struct {
	ID          uuid.UUID   `json:"id"`
	Contact     string      `json:"contact"`
	State       State       `json:"state"`
	Countdown   int         `json:"countdown"`
	Draft       *Draft      `json:"draft,omitempty"`
	CloseReason CloseReason `json:"closeReason,omitempty"`
	PromptText  string      `json:"promptText,omitempty"`
}

// Dialog is one nudge dialog instance. All state behind one mutex; the
// countdown goroutine and parse completions deliver their results as guarded
// events, so nothing mutates a closed dialog.
type Dialog struct {
	mu          sync.Mutex
	id          uuid.UUID
	contact     string
	cfg         Config
	state       State
	countdown   int
	draft       *Draft
	closeReason CloseReason
	parseSeq    int
	saving      bool

	parser Parser
	save   SaveFunc
	sink   EventSink
	logger *zap.Logger

	tick      time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewDialog opens a dialog for the given call contact and starts its
// countdown. The confirm-first variant starts in confirm with the short
// countdown; the input-first variant starts in input with the extended one.
func NewDialog(contact string, cfg Config, parser Parser, save SaveFunc, sink EventSink, logger *zap.Logger) *Dialog {
	if cfg.ConfirmCountdown <= 0 {
		cfg.ConfirmCountdown = DefaultConfig().ConfirmCountdown
	}
	if cfg.InputCountdown <= 0 {
		cfg.InputCountdown = DefaultConfig().InputCountdown
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = DefaultConfig().ParseTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	d := &Dialog{
		id:      uuid.New(),
		contact: contact,
		cfg:     cfg,
		parser:  parser,
		save:    save,
		sink:    sink,
		logger:  logger,
		tick:    cfg.TickInterval,
		done:    make(chan struct{}),
	}
	if cfg.RequireConfirm {
		d.state = StateConfirm
		d.countdown = cfg.ConfirmCountdown
	} else {
		d.state = StateInput
		d.countdown = cfg.InputCountdown
	}

	// Snapshot and log before the countdown goroutine starts; nothing else
	// can touch the dialog yet.
	snap := d.snapshotLocked()
	d.logger.Info("nudge_dialog_opened",
		zap.String("dialog_id", d.id.String()),
		zap.String("contact", contact),
		zap.String("state", string(d.state)),
		zap.Int("countdown_s", d.countdown),
	)
	d.emit("nudge_opened", snap)

	go d.run()
	return d
}

// ID returns the dialog identifier.
func (d *Dialog) ID() uuid.UUID { return d.id }

// Contact returns the call contact the dialog was opened for.
func (d *Dialog) Contact() string { return d.contact }

func (d *Dialog) emit(event string, payload any) {
	if d.sink != nil {
		d.sink(event, payload)
	}
}

// run drives the once-per-second auto-dismiss countdown. It ticks in every
// state; expiry is the only automatic transition and always goes to closed.
func (d *Dialog) run() {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.onTick()
		case <-d.done:
			return
		}
	}
}

func (d *Dialog) onTick() {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return
	}
	d.countdown--
	remaining := d.countdown
	d.mu.Unlock()

	if remaining <= 0 {
		d.close(CloseReasonExpired)
		return
	}
	d.emit("nudge_countdown", map[string]any{"id": d.id.String(), "countdown": remaining})
}

// Confirm is the explicit "yes" action: confirm -> input, countdown reset
// to the extended value.
func (d *Dialog) Confirm() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state != StateConfirm {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.state = StateInput
	d.countdown = d.cfg.InputCountdown
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.emit("nudge_state", snap)
	return nil
}

// Decline is the explicit "no" action; the dialog closes with no reminder
// created.
func (d *Dialog) Decline() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state != StateConfirm {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.mu.Unlock()

	d.close(CloseReasonDeclined)
	return nil
}

// Dismiss closes the dialog from any state with no side effect.
func (d *Dialog) Dismiss() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	d.mu.Unlock()

	d.close(CloseReasonDismissed)
	return nil
}

// Submit sends non-empty text to the parser: input -> processing. Empty
// text is rejected with no transition. The parse runs asynchronously; its
// completion is delivered as an event and discarded if the dialog moved on.
func (d *Dialog) Submit(text string) error {
	trimmed := strings.TrimSpace(text)

	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state != StateInput {
		d.mu.Unlock()
		return ErrInvalidState
	}
	if trimmed == "" {
		d.mu.Unlock()
		return ErrEmptyInput
	}
	d.state = StateProcessing
	d.parseSeq++
	seq := d.parseSeq
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.emit("nudge_state", snap)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ParseTimeout)
		defer cancel()
		result, err := d.parser.ParseReminder(ctx, trimmed, time.Now())
		d.parseCompleted(seq, result, err)
	}()
	return nil
}

// parseCompleted applies a parser result. Results from a superseded
// submission or a closed dialog are discarded.
func (d *Dialog) parseCompleted(seq int, result *models.ParsedReminder, err error) {
	d.mu.Lock()
	if d.state != StateProcessing || seq != d.parseSeq {
		d.mu.Unlock()
		d.logger.Debug("nudge_parse_result_discarded",
			zap.String("dialog_id", d.id.String()),
			zap.Int("seq", seq),
		)
		return
	}

	if err != nil || !result.Usable() {
		// Any output missing a task is a failure, however the collaborator
		// reported it.
		d.state = StateInput
		snap := d.snapshotLocked()
		d.mu.Unlock()

		if err != nil {
			d.logger.Warn("nudge_parse_failed", zap.String("dialog_id", d.id.String()), zap.Error(err))
		} else {
			d.logger.Warn("nudge_parse_unusable", zap.String("dialog_id", d.id.String()))
		}
		d.emit("nudge_parse_failed", snap)
		return
	}

	d.draft = &Draft{Task: result.Task, Timestamp: result.Timestamp}
	d.state = StateReview
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.emit("nudge_state", snap)
}

// Edit discards the draft and returns to input.
func (d *Dialog) Edit() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state != StateReview {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.draft = nil
	d.state = StateInput
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.emit("nudge_state", snap)
	return nil
}

// Save persists the reviewed draft as a reminder and closes the dialog.
// The saving flag claims the draft before the save func runs, so concurrent
// Save calls produce exactly one reminder. A rejected save (capacity)
// releases the claim and leaves the dialog in review.
func (d *Dialog) Save(ctx context.Context) error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	if d.state != StateReview || d.draft == nil || d.saving {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.saving = true
	draft := *d.draft
	d.mu.Unlock()

	if err := d.save(ctx, draft.Task, draft.Timestamp, d.contact); err != nil {
		d.mu.Lock()
		d.saving = false
		d.mu.Unlock()
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	d.close(CloseReasonSaved)
	return nil
}

// HandleTranscript feeds a final voice transcript into the dialog. In
// confirm it drives the yes/no transitions by keyword; in input it is a
// direct submission. Unrecognized confirm utterances are ignored.
func (d *Dialog) HandleTranscript(text string) error {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	switch state {
	case StateConfirm:
		if matchesKeyword(text, affirmativeKeywords) {
			return d.Confirm()
		}
		if matchesKeyword(text, negativeKeywords) {
			return d.Decline()
		}
		return nil
	case StateInput:
		return d.Submit(text)
	case StateClosed:
		return ErrDialogClosed
	default:
		return ErrInvalidState
	}
}

// matchesKeyword reports whether any keyword appears as a word in text.
func matchesKeyword(text string, keywords []string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		for _, kw := range keywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

// close transitions to closed exactly once and stops the countdown.
func (d *Dialog) close(reason CloseReason) {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.state = StateClosed
		d.closeReason = reason
		snap := d.snapshotLocked()
		d.mu.Unlock()

		close(d.done)
		d.logger.Info("nudge_dialog_closed",
			zap.String("dialog_id", d.id.String()),
			zap.String("reason", string(reason)),
		)
		d.emit("nudge_closed", snap)
	})
}

// Closed reports whether the dialog has closed.
func (d *Dialog) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == StateClosed
}

// Snapshot returns the current dialog state.
func (d *Dialog) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dialog) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          d.id,
		Contact:     d.contact,
		State:       d.state,
		Countdown:   d.countdown,
		CloseReason: d.closeReason,
		PromptText:  d.promptTextLocked(),
	}
	if d.draft != nil {
		copied := *d.draft
		snap.Draft = &copied
	}
	return snap
}

// promptTextLocked returns the voice prompt for the current state. The
// frontend synthesizes and plays it when voice is enabled.
func (d *Dialog) promptTextLocked() string {
	switch d.state {
	case StateConfirm:
		return fmt.Sprintf("Call with %s ended. Should I set a reminder?", d.contact)
	case StateInput:
		return fmt.Sprintf("Call with %s ended. What should I remember for you, and for what time?", d.contact)
	default:
		return ""
	}
}
