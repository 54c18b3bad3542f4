package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
// This enables better testability by allowing mock implementations
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for planning job queues
type JobQueue interface {
	// Enqueue adds a job to the queue. Jobs with a future NotBefore go through
	// the delayed exchange when it is available.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue
	// The caller is responsible for acknowledging each message
	// Prefetch controls how many unacknowledged messages each consumer can hold
	// Returns a channel that will be closed when the context is cancelled or an error occurs
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// ResultPublisher delivers assembled planning contexts to the downstream planner
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *Result) error
}

// DLQPurger removes dead-lettered jobs older than retention and reports how many it removed
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
