package models

// Theme represents the UI theme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// AppSettings holds user-adjustable application settings. The document is
// persisted whole on every change and always has all fields populated.
type AppSettings struct {
	VoiceEnabled    bool  `json:"voiceEnabled"`
	MinCallDuration int   `json:"minCallDuration" validate:"min=0"`
	Theme           Theme `json:"theme" validate:"theme"`
}

// DefaultSettings returns the settings applied when storage is empty or
// malformed.
func DefaultSettings() AppSettings {
	return AppSettings{
		VoiceEnabled:    true,
		MinCallDuration: 10,
		Theme:           ThemeSystem,
	}
}

// ResolveTheme resolves the effective theme. The server cannot observe a
// remote client's OS color scheme, so "system" resolves against the
// client-reported dark-mode flag.
func ResolveTheme(theme Theme, systemDark bool) Theme {
	switch theme {
	case ThemeLight, ThemeDark:
		return theme
	default:
		if systemDark {
			return ThemeDark
		}
		return ThemeLight
	}
}
