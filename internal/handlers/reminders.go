// Package handlers implements the HTTP API surface.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/nudge"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/validation"
)

const (
	manualDateLayout = "2006-01-02"
	manualTimeLayout = "15:04"
)

// RemindersHandler handles reminder CRUD plus the manual-entry form
type RemindersHandler struct {
	controller *state.Controller
	parser     nudge.Parser // nil when AI features are disabled
	logger     *zap.Logger
}

// NewRemindersHandler creates a reminders handler
func NewRemindersHandler(controller *state.Controller, parser nudge.Parser, logger *zap.Logger) *RemindersHandler {
	return &RemindersHandler{
		controller: controller,
		parser:     parser,
		logger:     logger,
	}
}

// CreateReminderRequest is the body for creating a reminder directly
type CreateReminderRequest struct {
	Text        string `json:"text" validate:"required,min=1,max=1000"`
	Timestamp   int64  `json:"timestamp" validate:"required"`
	ContactName string `json:"contactName" validate:"max=200"`
}

// ManualReminderRequest is the body of the manual-entry form: separate date
// and time fields, combined server-side into one timestamp
type ManualReminderRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// AutofillRequest runs free text through the parser to prefill the form
type AutofillRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// List handles GET /reminders with an optional status filter
func (h *RemindersHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.ReminderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		if err := validation.ValidateReminderStatus(raw); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
			return
		}
		s := models.ReminderStatus(raw)
		status = &s
	}

	reminders := h.controller.ListReminders(status)
	respondJSON(w, http.StatusOK, reminders)
}

// Create handles POST /reminders
func (h *RemindersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Text = validation.SanitizeText(req.Text)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	reminder, err := h.addReminder(r.Context(), w, req.Text, req.Timestamp, req.ContactName)
	if err != nil {
		return
	}
	respondJSON(w, http.StatusCreated, reminder)
}

// Manual handles POST /reminders/manual
func (h *RemindersHandler) Manual(w http.ResponseWriter, r *http.Request) {
	var req ManualReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Text = validation.SanitizeText(req.Text)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	scheduled, err := time.ParseInLocation(manualDateLayout+" "+manualTimeLayout, req.Date+" "+req.Time, time.Local)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "date must be YYYY-MM-DD and time must be HH:MM")
		return
	}

	reminder, err := h.addReminder(r.Context(), w, req.Text, scheduled.UnixMilli(), models.ManualEntryContact)
	if err != nil {
		return
	}
	respondJSON(w, http.StatusCreated, reminder)
}

// addReminder creates the reminder and writes the error response on failure
func (h *RemindersHandler) addReminder(ctx context.Context, w http.ResponseWriter, text string, timestamp int64, contact string) (*models.Reminder, error) {
	reminder, err := h.controller.AddReminder(ctx, text, timestamp, contact)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrCapacityReached):
			respondJSONError(w, http.StatusConflict, "Conflict",
				fmt.Sprintf("Reminder limit of %d reached", models.MaxReminders))
		case errors.Is(err, state.ErrEmptyText):
			respondJSONError(w, http.StatusBadRequest, "Validation Error", "text is required")
		default:
			h.logger.Error("reminder_create_failed", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create reminder")
		}
		return nil, err
	}
	return reminder, nil
}

// Autofill handles POST /reminders/manual/autofill. On parse failure it
// responds 200 with a failed flag so the form keeps the user's fields.
func (h *RemindersHandler) Autofill(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Unavailable", "AI parsing is not configured")
		return
	}

	var req AutofillRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Text = validation.SanitizeText(req.Text)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	parsed, err := h.parser.ParseReminder(r.Context(), req.Text, time.Now())
	if err != nil || !parsed.Usable() {
		if err != nil {
			h.logger.Warn("autofill_parse_failed", zap.Error(err))
		}
		respondJSON(w, http.StatusOK, map[string]any{"failed": true})
		return
	}

	scheduled := time.UnixMilli(parsed.Timestamp)
	respondJSON(w, http.StatusOK, map[string]any{
		"failed":    false,
		"task":      parsed.Task,
		"date":      scheduled.Format(manualDateLayout),
		"time":      scheduled.Format(manualTimeLayout),
		"timestamp": parsed.Timestamp,
	})
}

// Delete handles DELETE /reminders/{id}
func (h *RemindersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reminderID(w, r)
	if !ok {
		return
	}

	if err := h.controller.DeleteReminder(r.Context(), id); err != nil {
		h.logger.Error("reminder_delete_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete reminder")
		return
	}
	// Deleting an unknown id is a no-op
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /reminders/{id}/complete
func (h *RemindersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reminderID(w, r)
	if !ok {
		return
	}

	reminder, err := h.controller.CompleteReminder(r.Context(), id)
	if err != nil {
		h.logger.Error("reminder_complete_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete reminder")
		return
	}
	if reminder == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Reminder not found")
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

func (h *RemindersHandler) reminderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid reminder id")
		return uuid.Nil, false
	}
	return id, true
}
