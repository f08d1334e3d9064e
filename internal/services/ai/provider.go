package ai

import (
	"context"
	"io"
	"time"

	"github.com/callnudge/call-nudge/internal/models"
)

// Provider is the interface for AI collaborators: free-text reminder
// parsing, voice prompt synthesis, and speech transcription.
type Provider interface {
	// ParseReminder extracts a structured task and trigger time from free
	// text, interpreting relative expressions against now. A result with an
	// empty task is returned as-is; callers treat it as a parse failure.
	ParseReminder(ctx context.Context, text string, now time.Time) (*models.ParsedReminder, error)

	// SynthesizeSpeech renders a prompt string as playable audio. Absence
	// of audio is a valid, non-fatal outcome.
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)

	// Transcribe converts a single-shot audio capture to a final transcript.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ProviderFactory creates a provider from configuration
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
