package models

import (
	"time"

	"github.com/google/uuid"
)

// ReminderStatus represents the status of a reminder
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusCompleted ReminderStatus = "completed"
	// ReminderStatusSnoozed is declared for forward compatibility; no
	// operation currently produces it.
	ReminderStatusSnoozed ReminderStatus = "snoozed"
)

const (
	// MaxReminders is the hard cap on stored reminders
	MaxReminders = 100
	// ManualEntryContact labels reminders created through the manual form
	ManualEntryContact = "Manual Entry"
)

// Reminder represents a follow-up task captured after a call or entered
// manually. Timestamps are epoch milliseconds to match the persisted
// document format.
type Reminder struct {
	ID          uuid.UUID      `json:"id"`
	Text        string         `json:"text"`
	Timestamp   int64          `json:"timestamp"`
	CreatedAt   int64          `json:"createdAt"`
	Status      ReminderStatus `json:"status"`
	ContactName string         `json:"contactName,omitempty"`
}

// NewReminder creates a pending reminder with a fresh ID and creation time.
func NewReminder(text string, timestamp int64, contactName string) *Reminder {
	return &Reminder{
		ID:          uuid.New(),
		Text:        text,
		Timestamp:   timestamp,
		CreatedAt:   time.Now().UnixMilli(),
		Status:      ReminderStatusPending,
		ContactName: contactName,
	}
}

// ScheduledTime returns the scheduled trigger time.
func (r *Reminder) ScheduledTime() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// IsDue reports whether the reminder is pending and its scheduled time has
// passed.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.ScheduledTime().After(now)
}
