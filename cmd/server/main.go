package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/handlers"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	envFile := flag.String("env-file", ".env", "Optional dotenv file; variables already set win")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("day_picker", cfg.DayPicker),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Options{
				ServiceName:    telemetry.ServerServiceName,
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Redis backs the rate limiter when configured; otherwise limits are per process
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	} else {
		zapLogger.Warn("redis_not_configured_using_in_memory_rate_limit")
	}

	rateLimitStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(rateLimitStore, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	// RabbitMQ is only needed for the asynchronous jobs endpoint
	var jobQueue *queue.RabbitMQQueue
	if err := cfg.RequireQueue(); err != nil {
		zapLogger.Warn("rabbitmq_not_configured_jobs_endpoint_disabled")
	} else {
		jobQueue, err = queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	}

	engine := scheduling.NewEngine(append(cfg.EngineOptions(),
		scheduling.WithClock(clock.Real{}),
		scheduling.WithLogger(zapLogger),
	)...)

	handlerOpts := []handlers.ScheduleHandlerOption{handlers.WithLogger(zapLogger)}
	checks := map[string]handlers.Pinger{"redis": nil, "rabbitmq": nil}
	if jobQueue != nil {
		handlerOpts = append(handlerOpts, handlers.WithJobQueue(jobQueue))
		checks["rabbitmq"] = jobQueue
	}
	if redisClient != nil {
		checks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	scheduleHandler := handlers.NewScheduleHandler(engine, handlerOpts...)
	healthChecker := handlers.NewHealthChecker(checks)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order; the first registered is outermost
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServerServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionHandler(handlers.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})).Methods("GET")
	handlers.NewOpenAPIHandler(nil).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	scheduleRouter := apiRouter.PathPrefix("/schedule").Subrouter()
	scheduleRouter.Use(rateLimitMW)
	scheduleHandler.RegisterRoutes(scheduleRouter)

	// Preflight requests are answered by the CORS middleware before routing
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
