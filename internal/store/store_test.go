package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Load(ctx, RemindersKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing key, got %v", err)
	}

	payload := []byte(`[{"text":"follow up"}]`)
	if err := s.Save(ctx, RemindersKey, payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, RemindersKey)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}
}

func TestMemoryStoreCopiesData(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("original")
	if err := s.Save(ctx, SettingsKey, payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the saved slice must not affect the stored copy
	payload[0] = 'X'

	got, err := s.Load(ctx, SettingsKey)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Expected stored data to be unchanged, got %q", got)
	}

	// Mutating the loaded slice must not affect later loads
	got[0] = 'Y'
	again, err := s.Load(ctx, SettingsKey)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(again) != "original" {
		t.Errorf("Expected stored data to be unchanged after load mutation, got %q", again)
	}
}

func TestMemoryStoreHealthCheck(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy memory store, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		backend     string
		expectError bool
	}{
		{"memory backend", "memory", false},
		{"redis requires url", "redis", true},
		{"postgres requires url", "postgres", true},
		{"unknown backend", "cassandra", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Open(tt.backend, "", "", "")
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for backend %q", tt.backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", tt.backend, err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		})
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/test.db"
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore failed: %v", err)
	}
	defer func() {
		_ = s.Close()
	}()

	ctx := context.Background()
	if _, err := s.Load(ctx, SettingsKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing key, got %v", err)
	}

	payload := []byte(`{"voiceEnabled":true}`)
	if err := s.Save(ctx, SettingsKey, payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx, SettingsKey)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}
}
