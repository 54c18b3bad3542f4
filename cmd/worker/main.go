package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"github.com/benvon/smart-schedule/internal/workers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

var errMessageChannelClosed = errors.New("message channel closed")

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
	if err := cfg.RequireQueue(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.String("day_picker", cfg.DayPicker),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName:    telemetry.WorkerServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	engine := scheduling.NewEngine(append(cfg.EngineOptions(),
		scheduling.WithClock(clock.Real{}),
		scheduling.WithLogger(zapLogger),
	)...)
	planner := workers.NewPlanningWorker(engine, jobQueue, jobQueue, zapLogger)

	dlqGC := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQGCRetention, zapLogger)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	// the collector and the consumer share a lifetime; either failing stops both
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", cfg.DLQGCInterval),
			zap.Duration("retention", cfg.DLQGCRetention),
		)
		return dlqGC.Start(groupCtx)
	})
	group.Go(func() error {
		zapLogger.Info("worker_started")
		return consume(groupCtx, planner, msgChan, errChan, zapLogger)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}

func consume(ctx context.Context, planner *workers.PlanningWorker, msgChan <-chan *queue.Message, errChan <-chan error, log *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			log.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				return errMessageChannelClosed
			}
			if err := planner.ProcessJob(ctx, msg); err != nil {
				log.Error("failed_to_process_job",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}
