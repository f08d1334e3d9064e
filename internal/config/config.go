package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	FrontendURL string

	// Persistence. Bolt is the default and needs no external services.
	StoreBackend string
	BoltPath     string
	RedisURL     string
	DatabaseURL  string

	// AI provider for reminder parsing, transcription and speech
	OpenAIKey  string
	AIProvider string
	AIModel    string
	AIBaseURL  string

	// Nudge behavior
	NudgeRequireConfirm bool

	// Optional job queue for due-reminder notifications
	RabbitMQURL      string
	RabbitMQPrefetch int

	RateLimit  string
	EnableHSTS bool

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables. Nothing is strictly
// required: the server runs against the local bolt store with AI features
// disabled when no API key is configured.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		StoreBackend: getEnv("STORE_BACKEND", "bolt"),
		BoltPath:     getEnv("BOLT_PATH", "callnudge.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
		AIProvider: getEnv("AI_PROVIDER", "openai"),
		AIModel:    getEnv("AI_MODEL", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),

		NudgeRequireConfirm: getEnvBool("NUDGE_REQUIRE_CONFIRM", true),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		RateLimit:  getEnv("RATE_LIMIT", ""),
		EnableHSTS: getEnvBool("ENABLE_HSTS", false),

		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	return cfg, nil
}

// AIEnabled reports whether an AI provider can be constructed
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
