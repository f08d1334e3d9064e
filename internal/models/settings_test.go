package models

import "testing"

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if !s.VoiceEnabled {
		t.Error("Expected voice to be enabled by default")
	}
	if s.MinCallDuration != 10 {
		t.Errorf("Expected default min call duration 10, got %d", s.MinCallDuration)
	}
	if s.Theme != ThemeSystem {
		t.Errorf("Expected default theme system, got %s", s.Theme)
	}
}

func TestResolveTheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		theme      Theme
		systemDark bool
		want       Theme
	}{
		{"explicit light", ThemeLight, true, ThemeLight},
		{"explicit dark", ThemeDark, false, ThemeDark},
		{"system resolves dark", ThemeSystem, true, ThemeDark},
		{"system resolves light", ThemeSystem, false, ThemeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolveTheme(tt.theme, tt.systemDark); got != tt.want {
				t.Errorf("ResolveTheme(%s, %v) = %s, want %s", tt.theme, tt.systemDark, got, tt.want)
			}
		})
	}
}
