package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/services/ai"
	"github.com/callnudge/call-nudge/internal/validation"
)

const (
	// MaxAudioUploadSize bounds a single-shot voice capture (10MB); also the
	// request size limit on the API router
	MaxAudioUploadSize int64 = 10 << 20
)

// VoiceHandler handles transcription and prompt synthesis. With no AI
// provider configured both routes report unavailability and the frontend
// falls back to text input.
type VoiceHandler struct {
	provider ai.Provider // nil when AI features are disabled
	logger   *zap.Logger
}

// NewVoiceHandler creates a voice handler
func NewVoiceHandler(provider ai.Provider, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{provider: provider, logger: logger}
}

// SynthesizeRequest is the body for prompt synthesis
type SynthesizeRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// Transcribe handles POST /voice/transcribe with a multipart audio upload
func (h *VoiceHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.unavailable(w)
		return
	}

	if err := r.ParseMultipartForm(MaxAudioUploadSize); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Expected multipart form with an audio file")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing audio file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	text, err := h.provider.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		h.logger.Warn("transcription_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Upstream Error", "Transcription failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Synthesize handles POST /voice/synthesize. Absent audio is non-fatal: the
// response is 204 and the caller proceeds without speech.
func (h *VoiceHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.unavailable(w)
		return
	}

	var req SynthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	audio, err := h.provider.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		h.logger.Warn("speech_synthesis_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Upstream Error", "Speech synthesis failed")
		return
	}
	if len(audio) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Debug("audio_write_failed", zap.Error(err))
	}
}

func (h *VoiceHandler) unavailable(w http.ResponseWriter) {
	respondJSONError(w, http.StatusServiceUnavailable, "Unavailable", "Voice features are not configured")
}
