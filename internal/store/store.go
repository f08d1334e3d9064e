// Package store persists the application's two JSON documents: the reminder
// list and the settings object. Documents are read once at startup and
// overwritten whole on every mutation; there are no partial writes and no
// schema version field.
package store

import (
	"context"
	"errors"
)

const (
	// RemindersKey is the fixed key for the reminder list document
	RemindersKey = "call_nudge_reminders"
	// SettingsKey is the fixed key for the settings document
	SettingsKey = "call_nudge_settings"
)

// ErrNotFound is returned when a document does not exist yet.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the interface for document storage backends.
// This interface enables better testability by allowing mock implementations.
type DocumentStore interface {
	// Load returns the raw document stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the document stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Close closes the backend connection.
	Close() error

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}
