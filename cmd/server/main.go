package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/call"
	"github.com/callnudge/call-nudge/internal/config"
	"github.com/callnudge/call-nudge/internal/handlers"
	"github.com/callnudge/call-nudge/internal/logger"
	"github.com/callnudge/call-nudge/internal/middleware"
	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/nudge"
	"github.com/callnudge/call-nudge/internal/queue"
	"github.com/callnudge/call-nudge/internal/services/ai"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/store"
	"github.com/callnudge/call-nudge/internal/telemetry"
	"github.com/callnudge/call-nudge/internal/workers"
	"github.com/callnudge/call-nudge/internal/ws"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "call-nudge-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Open the document store
	docs, err := store.Open(cfg.StoreBackend, cfg.BoltPath, cfg.RedisURL, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.Error(err))
	}
	defer func() {
		if err := docs.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()
	zapLogger.Info("store_opened", zap.String("backend", cfg.StoreBackend))

	// Load state
	controller := state.NewController(docs, zapLogger)
	if err := controller.Load(context.Background()); err != nil {
		zapLogger.Fatal("failed_to_load_state", zap.Error(err))
	}

	// Live event hub; all state changes broadcast here
	hub := ws.NewHub(zapLogger)
	controller.SetEventSink(hub.Broadcast)

	// Redis client for the shared rate limit store. Reused from the document
	// store when the backend is redis.
	var redisClient *redis.Client
	if rs, ok := docs.(*store.RedisStore); ok {
		redisClient = rs.Client()
	} else if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	// Optional job queue for due-reminder notifications
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_rabbitmq_notifications_disabled", zap.Error(err))
			jobQueue = nil
		} else {
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	// Initialize AI provider
	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		aiProvider = nil
	}

	// The nudge dialog needs a parser even with AI disabled; the fallback
	// fails every parse, which lands the dialog back in input.
	var parser nudge.Parser
	if aiProvider != nil {
		parser = aiProvider
	} else {
		parser = unavailableParser{}
	}

	// Nudge manager: saves flow through the controller
	nudgeCfg := nudge.DefaultConfig()
	nudgeCfg.RequireConfirm = cfg.NudgeRequireConfirm
	saveReminder := func(ctx context.Context, task string, timestamp int64, contact string) error {
		_, err := controller.AddReminder(ctx, task, timestamp, contact)
		return err
	}
	nudges := nudge.NewManager(nudgeCfg, nudge.DefaultOpenDelay, parser, saveReminder, hub.Broadcast, zapLogger)

	// Call session manager: every tick goes to the event stream
	calls := call.NewManager(zapLogger, func(elapsed int) {
		hub.Broadcast("call_tick", map[string]int{"duration": elapsed})
	})

	// Background sweeper enqueues notification jobs for due reminders
	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()
	if jobQueue != nil {
		sweeper := workers.NewSweeper(controller, jobQueue, workers.DefaultSweepInterval, zapLogger)
		go sweeper.Run(backgroundCtx)
	}

	// Initialize handlers
	var handlerParser nudge.Parser
	if aiProvider != nil {
		handlerParser = aiProvider
	}
	remindersHandler := handlers.NewRemindersHandler(controller, handlerParser, zapLogger)
	settingsHandler := handlers.NewSettingsHandler(controller, zapLogger)
	callsHandler := handlers.NewCallsHandler(calls, nudges, controller, zapLogger)
	nudgeHandler := handlers.NewNudgeHandler(nudges, zapLogger)
	voiceHandler := handlers.NewVoiceHandler(aiProvider, zapLogger)
	healthChecker := handlers.NewHealthChecker(docs, jobQueue)

	// Rate limiting for AI-backed routes
	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Setup router. The websocket route is registered on the bare root
	// router: the timeout and logging wrappers do not support hijacking.
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/ws", hub.HandleConnection).Methods("GET")
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("call-nudge-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))

	// API routes carry the full middleware chain
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.MaxRequestSize(handlers.MaxAudioUploadSize))
	api.Use(middleware.ContentType)
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.ErrorHandler(zapLogger))
	api.Use(middleware.Logging(zapLogger))

	api.HandleFunc("/reminders", remindersHandler.List).Methods("GET")
	api.HandleFunc("/reminders", remindersHandler.Create).Methods("POST")
	api.HandleFunc("/reminders/manual", remindersHandler.Manual).Methods("POST")
	api.Handle("/reminders/manual/autofill", rateLimitMW(http.HandlerFunc(remindersHandler.Autofill))).Methods("POST")
	api.HandleFunc("/reminders/{id}", remindersHandler.Delete).Methods("DELETE")
	api.HandleFunc("/reminders/{id}/complete", remindersHandler.Complete).Methods("POST")

	api.HandleFunc("/settings", settingsHandler.Get).Methods("GET")
	api.HandleFunc("/settings", settingsHandler.Update).Methods("PUT")

	api.HandleFunc("/calls/start", callsHandler.Start).Methods("POST")
	api.HandleFunc("/calls/hangup", callsHandler.HangUp).Methods("POST")
	api.HandleFunc("/calls/status", callsHandler.Status).Methods("GET")

	api.HandleFunc("/nudge/session", nudgeHandler.Session).Methods("GET")
	api.HandleFunc("/nudge/session/confirm", nudgeHandler.Confirm).Methods("POST")
	api.HandleFunc("/nudge/session/decline", nudgeHandler.Decline).Methods("POST")
	api.HandleFunc("/nudge/session/dismiss", nudgeHandler.Dismiss).Methods("POST")
	api.HandleFunc("/nudge/session/submit", nudgeHandler.Submit).Methods("POST")
	api.HandleFunc("/nudge/session/transcript", nudgeHandler.Transcript).Methods("POST")
	api.HandleFunc("/nudge/session/edit", nudgeHandler.Edit).Methods("POST")
	api.HandleFunc("/nudge/session/save", nudgeHandler.Save).Methods("POST")

	voice := api.PathPrefix("/voice").Subrouter()
	voice.Use(rateLimitMW)
	voice.HandleFunc("/transcribe", voiceHandler.Transcribe).Methods("POST")
	voice.HandleFunc("/synthesize", voiceHandler.Synthesize).Methods("POST")

	// Catch-all OPTIONS handler so preflight requests reach the CORS
	// middleware even on routes that don't declare the method
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	backgroundCancel()
	nudges.Shutdown()
	hub.CloseAll()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_stopped")
}

// createAIProvider builds the configured AI provider
func createAIProvider(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) (ai.Provider, error) {
	if !cfg.AIEnabled() {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.AIProvider)
	}
}

// unavailableParser fails every parse; used when AI features are disabled.
type unavailableParser struct{}

func (unavailableParser) ParseReminder(_ context.Context, _ string, _ time.Time) (*models.ParsedReminder, error) {
	return nil, errors.New("ai parsing is not configured")
}

// versionInfo handles the /version endpoint
func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
