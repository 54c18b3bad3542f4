package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectAttempts bounds ConnectWithRetry
	DefaultConnectAttempts = 10

	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// ConnectWithRetry dials RabbitMQ with exponential backoff to ride out broker startup
func ConnectWithRetry(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	return connectWithRetry(ctx, attempts, logger, func() (*RabbitMQQueue, error) {
		return NewRabbitMQQueue(amqpURL, logger)
	})
}

func connectWithRetry[T any](ctx context.Context, attempts int, logger *zap.Logger, dial func() (T, error)) (T, error) {
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		conn, err := dial()
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		delay := connectDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

func connectDelay(attempt int) time.Duration {
	if attempt > 4 {
		return connectMaxDelay
	}
	delay := connectInitialDelay * time.Duration(1<<uint(attempt))
	if delay > connectMaxDelay {
		delay = connectMaxDelay
	}
	return delay
}
