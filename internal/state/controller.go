// Package state holds the application's top-level state: the reminder list
// and the settings document. All mutations flow through the Controller and
// are persisted whole on every change; no other component writes to the
// store directly.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrCapacityReached is returned when creating a reminder at the cap
	ErrCapacityReached = errors.New("reminder limit reached")
	// ErrEmptyText is returned when creating a reminder with no text
	ErrEmptyText = errors.New("reminder text is required")
)

// EventSink receives state change notifications for the live event stream.
// May be nil.
type EventSink func(event string, payload any)

// Controller owns the reminder list and settings.
type Controller struct {
	mu        sync.RWMutex
	store     store.DocumentStore
	reminders []*models.Reminder // newest first
	settings  models.AppSettings
	logger    *zap.Logger
	sink      EventSink
}

// NewController creates a controller with default settings and an empty list.
// Call Load before serving requests.
func NewController(docs store.DocumentStore, logger *zap.Logger) *Controller {
	return &Controller{
		store:     docs,
		reminders: []*models.Reminder{},
		settings:  models.DefaultSettings(),
		logger:    logger,
	}
}

// SetEventSink installs the live event sink
func (c *Controller) SetEventSink(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

func (c *Controller) emit(event string, payload any) {
	if c.sink != nil {
		c.sink(event, payload)
	}
}

// Load reads both documents from the store. A missing document means
// defaults; a malformed document is treated the same way rather than
// propagating a startup failure.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.store.Load(ctx, store.RemindersKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.reminders = []*models.Reminder{}
	case err != nil:
		return fmt.Errorf("failed to load reminders: %w", err)
	default:
		var reminders []*models.Reminder
		if jsonErr := json.Unmarshal(data, &reminders); jsonErr != nil {
			c.logger.Warn("malformed_reminders_document_using_defaults", zap.Error(jsonErr))
			reminders = []*models.Reminder{}
		}
		c.reminders = reminders
	}

	data, err = c.store.Load(ctx, store.SettingsKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.settings = models.DefaultSettings()
	case err != nil:
		return fmt.Errorf("failed to load settings: %w", err)
	default:
		settings := models.DefaultSettings()
		if jsonErr := json.Unmarshal(data, &settings); jsonErr != nil {
			c.logger.Warn("malformed_settings_document_using_defaults", zap.Error(jsonErr))
			settings = models.DefaultSettings()
		}
		c.settings = settings
	}

	c.logger.Info("state_loaded",
		zap.Int("reminder_count", len(c.reminders)),
		zap.Bool("voice_enabled", c.settings.VoiceEnabled),
		zap.Int("min_call_duration", c.settings.MinCallDuration),
	)
	return nil
}

// persistReminders writes a candidate reminder list document. Callers commit
// the candidate to memory only after this succeeds, so a failed persist
// leaves the in-memory state untouched.
func (c *Controller) persistReminders(ctx context.Context, reminders []*models.Reminder) error {
	data, err := json.Marshal(reminders)
	if err != nil {
		return fmt.Errorf("failed to marshal reminders: %w", err)
	}
	if err := c.store.Save(ctx, store.RemindersKey, data); err != nil {
		return fmt.Errorf("failed to persist reminders: %w", err)
	}
	return nil
}

// persistSettings writes a candidate settings document. Same commit-after-
// persist contract as persistReminders.
func (c *Controller) persistSettings(ctx context.Context, settings models.AppSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := c.store.Save(ctx, store.SettingsKey, data); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// AddReminder creates a pending reminder at the head of the list.
// Returns ErrCapacityReached when the list already holds MaxReminders.
func (c *Controller) AddReminder(ctx context.Context, text string, timestamp int64, contactName string) (*models.Reminder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text == "" {
		return nil, ErrEmptyText
	}
	if len(c.reminders) >= models.MaxReminders {
		return nil, ErrCapacityReached
	}

	reminder := models.NewReminder(text, timestamp, contactName)
	next := append([]*models.Reminder{reminder}, c.reminders...)

	if err := c.persistReminders(ctx, next); err != nil {
		return nil, err
	}
	c.reminders = next

	c.logger.Info("reminder_created",
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("contact", reminder.ContactName),
		zap.Int64("scheduled_ms", reminder.Timestamp),
	)
	c.emit("reminder_created", reminder)
	return reminder, nil
}

// DeleteReminder removes a reminder regardless of status.
// Deleting an unknown id is a no-op.
func (c *Controller) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]*models.Reminder, 0, len(c.reminders))
	removed := false
	for _, r := range c.reminders {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return nil
	}

	if err := c.persistReminders(ctx, kept); err != nil {
		return err
	}
	c.reminders = kept
	c.emit("reminder_deleted", map[string]string{"id": id.String()})
	return nil
}

// CompleteReminder flips a pending reminder to completed. Completing an
// already-completed reminder is idempotent; the transition never reverses.
func (c *Controller) CompleteReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, r := range c.reminders {
		if r.ID != id {
			continue
		}
		if r.Status == models.ReminderStatusCompleted {
			return r, nil
		}

		updated := *r
		updated.Status = models.ReminderStatusCompleted
		next := make([]*models.Reminder, len(c.reminders))
		copy(next, c.reminders)
		next[i] = &updated

		if err := c.persistReminders(ctx, next); err != nil {
			return nil, err
		}
		c.reminders = next
		c.emit("reminder_completed", &updated)
		return &updated, nil
	}
	return nil, nil
}

// ListReminders returns a copy of the list, newest first, optionally
// filtered by status.
func (c *Controller) ListReminders(status *models.ReminderStatus) []*models.Reminder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.Reminder, 0, len(c.reminders))
	for _, r := range c.reminders {
		if status != nil && r.Status != *status {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out
}

// GetReminder returns a copy of a single reminder, or nil if unknown.
func (c *Controller) GetReminder(id uuid.UUID) *models.Reminder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.reminders {
		if r.ID == id {
			copied := *r
			return &copied
		}
	}
	return nil
}

// Count returns the number of stored reminders.
func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reminders)
}

// Settings returns the current settings document.
func (c *Controller) Settings() models.AppSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// UpdateSettings replaces the settings document and persists it.
func (c *Controller) UpdateSettings(ctx context.Context, settings models.AppSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persistSettings(ctx, settings); err != nil {
		return err
	}
	c.settings = settings

	c.logger.Info("settings_updated",
		zap.Bool("voice_enabled", settings.VoiceEnabled),
		zap.Int("min_call_duration", settings.MinCallDuration),
		zap.String("theme", string(settings.Theme)),
	)
	c.emit("settings_updated", settings)
	return nil
}
