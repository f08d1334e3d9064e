package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/call"
	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/nudge"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/validation"
)

// CallsHandler handles the call session lifecycle. Hanging up feeds the
// summary to the nudge manager, which decides whether a dialog follows.
type CallsHandler struct {
	calls      *call.Manager
	nudges     *nudge.Manager
	controller *state.Controller
	logger     *zap.Logger
}

// NewCallsHandler creates a calls handler
func NewCallsHandler(calls *call.Manager, nudges *nudge.Manager, controller *state.Controller, logger *zap.Logger) *CallsHandler {
	return &CallsHandler{
		calls:      calls,
		nudges:     nudges,
		controller: controller,
		logger:     logger,
	}
}

// StartCallRequest is the body for starting a call
type StartCallRequest struct {
	ContactName string `json:"contactName" validate:"max=200"`
	Direction   string `json:"direction" validate:"omitempty,oneof=incoming outgoing"`
}

// Start handles POST /calls/start
func (h *CallsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartCallRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
			return
		}
		req.ContactName = validation.SanitizeText(req.ContactName)
		if err := validation.Validate.Struct(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
			return
		}
	}

	callState, err := h.calls.Start(req.ContactName, models.CallDirection(req.Direction))
	if err != nil {
		if errors.Is(err, call.ErrCallActive) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A call is already active")
			return
		}
		h.logger.Error("call_start_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start call")
		return
	}
	respondJSON(w, http.StatusOK, callState)
}

// HangUpResponse reports the ended call and whether a nudge was scheduled
type HangUpResponse struct {
	Summary        models.CallSummary `json:"summary"`
	NudgeScheduled bool               `json:"nudgeScheduled"`
}

// HangUp handles POST /calls/hangup
func (h *CallsHandler) HangUp(w http.ResponseWriter, r *http.Request) {
	summary, err := h.calls.HangUp()
	if err != nil {
		if errors.Is(err, call.ErrNoActiveCall) {
			respondJSONError(w, http.StatusConflict, "Conflict", "No active call")
			return
		}
		h.logger.Error("call_hangup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to hang up")
		return
	}

	minDuration := h.controller.Settings().MinCallDuration
	scheduled := h.nudges.HandleCallSummary(summary, minDuration)

	respondJSON(w, http.StatusOK, HangUpResponse{
		Summary:        summary,
		NudgeScheduled: scheduled,
	})
}

// Status handles GET /calls/status
func (h *CallsHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.calls.State())
}
