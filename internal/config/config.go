package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/joho/godotenv"
)

// ErrQueueNotConfigured is returned when a component needs RabbitMQ but RABBITMQ_URL is empty
var ErrQueueNotConfigured = errors.New("RABBITMQ_URL is required for asynchronous planning jobs")

// Config holds application configuration
type Config struct {
	ServerPort       string
	FrontendURL      string
	EnableHSTS       bool
	RedisURL         string
	RateLimit        string
	RequestTimeout   time.Duration
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string

	// Engine knobs
	ReschedulePriorityDelta int
	RescheduleDurationDelta time.Duration
	DayPicker               string

	// Dead letter queue housekeeping
	DLQGCInterval  time.Duration
	DLQGCRetention time.Duration
}

// LoadDotEnv fills variables that are not already set from a dotenv file.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimit:        getEnv("RATE_LIMIT", "20-S"),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ReschedulePriorityDelta: getEnvInt("RESCHEDULE_PRIORITY_DELTA", scheduling.DefaultPriorityDelta),
		RescheduleDurationDelta: time.Duration(getEnvInt("RESCHEDULE_DURATION_DELTA_MINUTES", int(scheduling.DefaultDurationDelta/time.Minute))) * time.Minute,
		DayPicker:               getEnv("SCHEDULING_DAY_PICKER", scheduling.DayPickerFirst),

		DLQGCInterval:  time.Duration(getEnvInt("DLQ_GC_INTERVAL_MINUTES", 60)) * time.Minute,
		DLQGCRetention: time.Duration(getEnvInt("DLQ_RETENTION_HOURS", 72)) * time.Hour,
	}

	if cfg.ReschedulePriorityDelta <= 0 {
		return nil, fmt.Errorf("RESCHEDULE_PRIORITY_DELTA must be positive, got %d", cfg.ReschedulePriorityDelta)
	}
	if cfg.RescheduleDurationDelta <= 0 {
		return nil, fmt.Errorf("RESCHEDULE_DURATION_DELTA_MINUTES must be positive, got %s", cfg.RescheduleDurationDelta)
	}
	if _, err := scheduling.DayPickerByName(cfg.DayPicker); err != nil {
		return nil, fmt.Errorf("SCHEDULING_DAY_PICKER: %w", err)
	}
	if cfg.RabbitMQPrefetch <= 0 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be positive, got %d", cfg.RabbitMQPrefetch)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if cfg.DLQGCInterval <= 0 || cfg.DLQGCRetention <= 0 {
		return nil, fmt.Errorf("DLQ_GC_INTERVAL_MINUTES and DLQ_RETENTION_HOURS must be positive")
	}

	return cfg, nil
}

// RequireQueue reports whether the RabbitMQ connection is configured
func (c *Config) RequireQueue() error {
	if c.RabbitMQURL == "" {
		return ErrQueueNotConfigured
	}
	return nil
}

// EngineOptions turns the engine knobs into scheduling engine options
func (c *Config) EngineOptions() []scheduling.Option {
	picker, err := scheduling.DayPickerByName(c.DayPicker)
	if err != nil {
		// Load rejects unknown names
		picker = scheduling.FirstQualifying{}
	}
	return []scheduling.Option{
		scheduling.WithThresholds(scheduling.Thresholds{
			PriorityDelta: c.ReschedulePriorityDelta,
			DurationDelta: c.RescheduleDurationDelta,
		}),
		scheduling.WithDayPicker(picker),
	}
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
