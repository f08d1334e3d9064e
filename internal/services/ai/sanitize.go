package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// MaxFullLogLength is the maximum length for full debug content
	MaxFullLogLength = 10000
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	// Show first 4 and last 4 characters, redact the middle
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging.
// Even in fullLog mode content is sanitized to prevent log injection and
// limit size.
func SanitizePrompt(prompt string, fullLog bool) string {
	return sanitizeContent(prompt, fullLog)
}

// SanitizeResponse creates a safe preview of a model response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return sanitizeContent(response, fullLog)
}

func sanitizeContent(content string, fullLog bool) string {
	if content == "" {
		return ""
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	var builder strings.Builder
	builder.Grow(len(content))
	for _, r := range content {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' {
			builder.WriteRune(r)
		}
	}
	content = builder.String()

	limit := MaxPreviewLength
	if fullLog {
		limit = MaxFullLogLength
	}
	if len(content) > limit {
		content = content[:limit] + "..."
	}
	return content
}
