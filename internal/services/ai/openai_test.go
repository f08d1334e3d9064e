package ai

import (
	"strings"
	"testing"
	"time"
)

func TestParseReminderResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantTask string
		wantTs   int64
		wantErr  bool
	}{
		{
			name:     "clean json",
			content:  `{"task": "call the bank", "timestamp": 1700000000000, "confidence": 0.9}`,
			wantTask: "call the bank",
			wantTs:   1700000000000,
		},
		{
			name:     "json wrapped in prose",
			content:  "Here is the result:\n```json\n{\"task\": \"send invoice\", \"timestamp\": 1700000000000, \"confidence\": 0.8}\n```",
			wantTask: "send invoice",
			wantTs:   1700000000000,
		},
		{
			name:     "empty task passes through",
			content:  `{"task": "", "timestamp": 0, "confidence": 0.1}`,
			wantTask: "",
		},
		{
			name:    "not json at all",
			content: "I could not find a reminder in that text.",
			wantErr: true,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := parseReminderResponse(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if parsed.Task != tt.wantTask {
				t.Errorf("Expected task %q, got %q", tt.wantTask, parsed.Task)
			}
			if parsed.Timestamp != tt.wantTs {
				t.Errorf("Expected timestamp %d, got %d", tt.wantTs, parsed.Timestamp)
			}
		})
	}
}

func TestBuildParsePrompt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	prompt := buildParsePrompt("call mom tomorrow at 2pm", now)

	if !strings.Contains(prompt, "call mom tomorrow at 2pm") {
		t.Error("Expected prompt to contain the input text")
	}
	if !strings.Contains(prompt, now.Format(time.RFC3339)) {
		t.Error("Expected prompt to contain the current time")
	}
	if !strings.Contains(prompt, "Friday") {
		t.Error("Expected prompt to contain the day of week")
	}
	if !strings.Contains(prompt, "milliseconds") {
		t.Error("Expected prompt to describe the timestamp unit")
	}
}

func TestNewOpenAIProviderDefaults(t *testing.T) {
	t.Parallel()

	p := NewOpenAIProvider("sk-test", "")
	if p.model != DefaultOpenAIModel {
		t.Errorf("Expected default model %s, got %s", DefaultOpenAIModel, p.model)
	}
	if p.speechModel != DefaultSpeechModel {
		t.Errorf("Expected default speech model %s, got %s", DefaultSpeechModel, p.speechModel)
	}
	if p.voice != DefaultSpeechVoice {
		t.Errorf("Expected default voice %s, got %s", DefaultSpeechVoice, p.voice)
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry)

	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "sk-test"}); err != nil {
		t.Errorf("Expected openai provider, got error: %v", err)
	}
	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("Expected an error without api_key")
	}
	if _, err := registry.GetProvider("unknown", nil); err == nil {
		t.Error("Expected an error for unknown provider")
	}
}
