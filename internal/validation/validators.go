package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation
	if err := Validate.RegisterValidation("theme", validateTheme); err != nil {
		panic(fmt.Sprintf("failed to register theme validator: %v", err))
	}
	if err := Validate.RegisterValidation("reminder_status", validateReminderStatus); err != nil {
		panic(fmt.Sprintf("failed to register reminder_status validator: %v", err))
	}
}

// validateTheme validates that a string is a valid Theme enum value
func validateTheme(fl validator.FieldLevel) bool {
	switch models.Theme(fl.Field().String()) {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
		return true
	default:
		return false
	}
}

// validateReminderStatus validates that a string is a valid ReminderStatus enum value
func validateReminderStatus(fl validator.FieldLevel) bool {
	switch models.ReminderStatus(fl.Field().String()) {
	case models.ReminderStatusPending, models.ReminderStatusCompleted, models.ReminderStatusSnoozed:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTheme validates a Theme string value
func ValidateTheme(value string) error {
	switch models.Theme(value) {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
		return nil
	default:
		return fmt.Errorf("invalid theme: %s (must be 'light', 'dark', or 'system')", value)
	}
}

// ValidateReminderStatus validates a ReminderStatus string value
func ValidateReminderStatus(value string) error {
	switch models.ReminderStatus(value) {
	case models.ReminderStatusPending, models.ReminderStatusCompleted, models.ReminderStatusSnoozed:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'completed', or 'snoozed')", value)
	}
}
