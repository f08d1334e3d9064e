package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/validation"
)

// SettingsHandler handles the settings document
type SettingsHandler struct {
	controller *state.Controller
	logger     *zap.Logger
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(controller *state.Controller, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{controller: controller, logger: logger}
}

// SettingsResponse is the settings document plus derived fields
type SettingsResponse struct {
	models.AppSettings
	ResolvedTheme models.Theme  `json:"resolvedTheme"`
	Stats         ReminderStats `json:"stats"`
}

// ReminderStats reports how full the reminder list is
type ReminderStats struct {
	Count    int `json:"count"`
	Capacity int `json:"capacity"`
}

// Get handles GET /settings. The system theme resolves against the
// client-reported ?system_dark flag.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings := h.controller.Settings()
	systemDark := r.URL.Query().Get("system_dark") == "true"

	respondJSON(w, http.StatusOK, SettingsResponse{
		AppSettings:   settings,
		ResolvedTheme: models.ResolveTheme(settings.Theme, systemDark),
		Stats: ReminderStats{
			Count:    h.controller.Count(),
			Capacity: models.MaxReminders,
		},
	})
}

// Update handles PUT /settings with a whole settings document
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings models.AppSettings
	if err := decodeJSON(r, &settings); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if settings.Theme == "" {
		settings.Theme = models.ThemeSystem
	}
	if err := validation.Validate.Struct(&settings); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	if err := h.controller.UpdateSettings(r.Context(), settings); err != nil {
		h.logger.Error("settings_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}
