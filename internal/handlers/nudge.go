package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/nudge"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/validation"
)

// NudgeHandler exposes the active nudge dialog. Every action route resolves
// the single open dialog; no dialog means 404.
type NudgeHandler struct {
	nudges *nudge.Manager
	logger *zap.Logger
}

// NewNudgeHandler creates a nudge handler
func NewNudgeHandler(nudges *nudge.Manager, logger *zap.Logger) *NudgeHandler {
	return &NudgeHandler{nudges: nudges, logger: logger}
}

// TextRequest is the body for submit and transcript actions
type TextRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

// Session handles GET /nudge/session
func (h *NudgeHandler) Session(w http.ResponseWriter, r *http.Request) {
	dialog, ok := h.active(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dialog.Snapshot())
}

// Confirm handles POST /nudge/session/confirm
func (h *NudgeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.action(w, func(d *nudge.Dialog) error { return d.Confirm() })
}

// Decline handles POST /nudge/session/decline
func (h *NudgeHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.action(w, func(d *nudge.Dialog) error { return d.Decline() })
}

// Dismiss handles POST /nudge/session/dismiss
func (h *NudgeHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.action(w, func(d *nudge.Dialog) error { return d.Dismiss() })
}

// Edit handles POST /nudge/session/edit
func (h *NudgeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.action(w, func(d *nudge.Dialog) error { return d.Edit() })
}

// Submit handles POST /nudge/session/submit
func (h *NudgeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	dialog, ok := h.active(w)
	if !ok {
		return
	}
	text, ok := h.text(w, r)
	if !ok {
		return
	}

	if err := dialog.Submit(text); err != nil {
		h.actionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dialog.Snapshot())
}

// Transcript handles POST /nudge/session/transcript with a final voice
// transcript. Unrecognized confirm utterances are a no-op, not an error.
func (h *NudgeHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	dialog, ok := h.active(w)
	if !ok {
		return
	}
	text, ok := h.text(w, r)
	if !ok {
		return
	}

	if err := dialog.HandleTranscript(text); err != nil {
		// An empty capture means the dictation ended with no input
		if errors.Is(err, nudge.ErrEmptyInput) {
			respondJSON(w, http.StatusOK, dialog.Snapshot())
			return
		}
		h.actionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dialog.Snapshot())
}

// Save handles POST /nudge/session/save
func (h *NudgeHandler) Save(w http.ResponseWriter, r *http.Request) {
	dialog, ok := h.active(w)
	if !ok {
		return
	}

	if err := dialog.Save(r.Context()); err != nil {
		if errors.Is(err, state.ErrCapacityReached) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Reminder limit reached")
			return
		}
		h.actionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dialog.Snapshot())
}

func (h *NudgeHandler) action(w http.ResponseWriter, fn func(*nudge.Dialog) error) {
	dialog, ok := h.active(w)
	if !ok {
		return
	}
	if err := fn(dialog); err != nil {
		h.actionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dialog.Snapshot())
}

func (h *NudgeHandler) active(w http.ResponseWriter) (*nudge.Dialog, bool) {
	dialog := h.nudges.Active()
	if dialog == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No active nudge dialog")
		return nil, false
	}
	return dialog, true
}

func (h *NudgeHandler) text(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return "", false
	}
	req.Text = validation.SanitizeText(req.Text)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return "", false
	}
	return req.Text, true
}

func (h *NudgeHandler) actionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nudge.ErrDialogClosed):
		respondJSONError(w, http.StatusNotFound, "Not Found", "No active nudge dialog")
	case errors.Is(err, nudge.ErrInvalidState):
		respondJSONError(w, http.StatusConflict, "Conflict", "Action not valid in current dialog state")
	case errors.Is(err, nudge.ErrEmptyInput):
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "text is required")
	default:
		h.logger.Error("nudge_action_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Nudge action failed")
	}
}
