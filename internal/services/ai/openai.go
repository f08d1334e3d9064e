package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default chat model used for parsing
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultSpeechModel is the default text-to-speech model
	DefaultSpeechModel = "gpt-4o-mini-tts"
	// DefaultTranscriptionModel is the default speech-to-text model
	DefaultTranscriptionModel = "whisper-1"
	// DefaultSpeechVoice is the default synthesized voice
	DefaultSpeechVoice = "alloy"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client      openai.Client
	model       string
	speechModel string
	voice       string
	logger      *zap.Logger
	debugMode   bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:      client,
		model:       model,
		speechModel: DefaultSpeechModel,
		voice:       DefaultSpeechVoice,
		logger:      logger,
		debugMode:   debugMode,
	}
}

// ParseReminder extracts a task and absolute trigger timestamp from free text
func (p *OpenAIProvider) ParseReminder(ctx context.Context, text string, now time.Time) (*models.ParsedReminder, error) {
	prompt := buildParsePrompt(text, now)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant that extracts reminder tasks and trigger times from free text. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "parse_reminder"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "parse_reminder"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to parse reminder: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to parse reminder: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "parse_reminder"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseReminderResponse(content)
}

// parseReminderResponse decodes the model output. Output wrapped in prose is
// salvaged by extracting the outermost JSON object.
func parseReminderResponse(content string) (*models.ParsedReminder, error) {
	var parsed models.ParsedReminder
	raw := content
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse reminder response: %w", err)
		}
	}
	return &parsed, nil
}

// buildParsePrompt builds the extraction prompt with time context so
// relative expressions ("tomorrow at 2pm") resolve correctly
func buildParsePrompt(text string, now time.Time) string {
	prompt := fmt.Sprintf(`Analyze the following text and extract a reminder task and a specific date/time.

Text: "%s"

Time context:
- Current date and time: %s
- Day of week: %s`, text, now.Format(time.RFC3339), now.Weekday().String())

	prompt += `

Respond with a JSON object in this format:
{
  "task": "short description of the reminder",
  "timestamp": 1700000000000,
  "confidence": 0.9
}

Guidelines:
- "timestamp" is the absolute unix timestamp in milliseconds for when the reminder should trigger
- Resolve relative time expressions ("tomorrow at 2pm", "in an hour", "next Friday") against the current date and time above
- If the text contains no recognizable task, return an empty string for "task"
- "confidence" is a score from 0 to 1

Return only valid JSON.`

	return prompt
}

// SynthesizeSpeech renders a prompt as audio. Returns nil bytes without
// error when the API yields no audio; callers proceed silently.
func (p *OpenAIProvider) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(p.speechModel),
		Input: text,
		Voice: openai.AudioSpeechNewParamsVoice(p.voice),
	})
	if err != nil {
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to synthesize speech: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "synthesize_speech"),
			zap.String("model", p.speechModel),
			zap.Int("audio_bytes", len(audio)),
		)
	}
	return audio, nil
}

// Transcribe converts a single-shot audio capture to a final transcript
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(DefaultTranscriptionModel),
		File:  openai.File(audio, filename, "application/octet-stream"),
	})
	if err != nil {
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to transcribe audio: %w", apiErr)
		}
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return resp.Text, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}
		model := config["model"]
		baseURL := config["base_url"]
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}
