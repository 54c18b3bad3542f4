package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	logpkg "github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultHoldLimit is the longest a worker waits in place for a job's NotBefore
	DefaultHoldLimit = 5 * time.Second

	retryBaseDelay = 30 * time.Second
	retryMaxDelay  = 15 * time.Minute
)

// errPermanent marks failures that retrying cannot fix
var errPermanent = errors.New("permanent job failure")

// JobProcessor builds the planning context for one job
type JobProcessor func(ctx context.Context, job *queue.Job) (any, error)

type processorEntry struct {
	proc JobProcessor
}

// Enqueuer re-enqueues jobs for delayed retry
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// PlanningWorker consumes planning jobs, runs the engine and publishes the
// assembled context to the results queue
type PlanningWorker struct {
	engine    *scheduling.Engine
	results   queue.ResultPublisher
	jobQueue  Enqueuer
	clock     clock.Clock
	logger    *zap.Logger
	tracer    trace.Tracer
	holdLimit time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	registry  map[queue.JobType]processorEntry
}

// Option configures a PlanningWorker
type Option func(*PlanningWorker)

// WithClock overrides the time source used for NotBefore/NotAfter checks
func WithClock(c clock.Clock) Option {
	return func(w *PlanningWorker) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithHoldLimit sets how long the worker waits in place for a job that is not yet due
func WithHoldLimit(d time.Duration) Option {
	return func(w *PlanningWorker) {
		if d >= 0 {
			w.holdLimit = d
		}
	}
}

// WithSleep replaces the wait used while holding a job that is not yet due
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *PlanningWorker) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// NewPlanningWorker creates a worker and registers the planning processors.
// jobQueue may be nil, in which case failed jobs are dead-lettered instead of retried.
func NewPlanningWorker(engine *scheduling.Engine, results queue.ResultPublisher, jobQueue Enqueuer, logger *zap.Logger, opts ...Option) *PlanningWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &PlanningWorker{
		engine:    engine,
		results:   results,
		jobQueue:  jobQueue,
		clock:     clock.Real{},
		logger:    logger,
		tracer:    otel.Tracer("github.com/benvon/smart-schedule/internal/workers"),
		holdLimit: DefaultHoldLimit,
		sleep:     sleepContext,
		registry:  make(map[queue.JobType]processorEntry),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.RegisterProcessor(queue.JobTypePlanTask, w.processPlanTask)
	w.RegisterProcessor(queue.JobTypePlanChunks, w.processPlanChunks)
	return w
}

// RegisterProcessor registers a processor for a job type
func (w *PlanningWorker) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	w.registry[typ] = processorEntry{proc: proc}
}

func (w *PlanningWorker) processPlanTask(ctx context.Context, job *queue.Job) (any, error) {
	var req scheduling.TaskRequest
	if err := job.DecodePayload(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	if err := validation.ValidatePlanRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	return w.engine.PlanTask(req.Task, req.PlanInput), nil
}

func (w *PlanningWorker) processPlanChunks(ctx context.Context, job *queue.Job) (any, error) {
	var req scheduling.ChunksRequest
	if err := job.DecodePayload(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	if err := validation.ValidateChunksRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	return w.engine.PlanChunks(req.Chunks, req.PlanInput), nil
}

// ProcessJob processes a job based on its type using the processor registry.
// The message is always acked or nacked before returning.
func (w *PlanningWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	jobID := job.ID.String()

	ctx, span := w.tracer.Start(ctx, "planning_job",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("job.type", string(job.Type)),
			attribute.Int("job.retry_count", job.RetryCount),
		),
	)
	defer span.End()

	err := w.processJob(ctx, msg, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, logpkg.SanitizeError(err))
	}
	return err
}

func (w *PlanningWorker) processJob(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	jobID := job.ID.String()

	if job.IsExpired(w.clock.Now()) {
		w.logger.Warn("planning_job_expired",
			zap.String("job_id", jobID),
			zap.Timep("not_after", job.NotAfter),
		)
		w.nack(msg, job, false)
		return nil
	}

	if !job.ShouldProcess(w.clock.Now()) {
		ready, err := w.holdUntilDue(ctx, job)
		if err != nil {
			w.nack(msg, job, true)
			return err
		}
		if !ready {
			return w.deferJob(ctx, msg, job)
		}
	}

	ent, ok := w.registry[job.Type]
	if !ok {
		w.nack(msg, job, false)
		return fmt.Errorf("%w: %s", queue.ErrUnknownJobType, job.Type)
	}

	planContext, err := ent.proc(ctx, job)
	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	result, err := queue.NewResult(job, planContext, w.clock.Now())
	if err != nil {
		return w.handleJobError(ctx, msg, job, fmt.Errorf("%w: %w", errPermanent, err))
	}
	if err := w.results.PublishResult(ctx, result); err != nil {
		return w.handleJobError(ctx, msg, job, fmt.Errorf("failed to publish planning result: %w", err))
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack planning job: %w", ackErr)
	}

	w.logger.Info("planning_job_processed",
		zap.String("job_id", jobID),
		zap.String("job_type", string(job.Type)),
		zap.String("correlation_id", logpkg.SanitizeString(job.CorrelationID, 200)),
		zap.Int("retry_count", job.RetryCount),
	)
	return nil
}

// holdUntilDue waits in place for a job due within the hold limit. It reports
// whether the job became due.
func (w *PlanningWorker) holdUntilDue(ctx context.Context, job *queue.Job) (bool, error) {
	wait := job.NotBefore.Sub(w.clock.Now())
	if wait > w.holdLimit {
		wait = w.holdLimit
	}
	if wait > 0 {
		if err := w.sleep(ctx, wait); err != nil {
			return false, err
		}
	}
	return job.ShouldProcess(w.clock.Now()), nil
}

// deferJob puts a job that is not yet due back on the queue unchanged
func (w *PlanningWorker) deferJob(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	w.logger.Debug("planning_job_not_ready",
		zap.String("job_id", job.ID.String()),
		zap.Timep("not_before", job.NotBefore),
	)
	if w.jobQueue == nil {
		w.nack(msg, job, true)
		return nil
	}
	if err := w.jobQueue.Enqueue(ctx, job); err != nil {
		w.nack(msg, job, true)
		return fmt.Errorf("failed to defer planning job: %w", err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack deferred planning job: %w", ackErr)
	}
	return nil
}

// handleJobError dead-letters permanent failures and retries the rest with
// exponential backoff until the retry budget is spent
func (w *PlanningWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", logpkg.SanitizeError(err)),
	}

	if errors.Is(err, errPermanent) {
		w.logger.Warn("planning_job_rejected", fields...)
		w.nack(msg, job, false)
		return fmt.Errorf("planning job rejected: %w", err)
	}

	if !job.CanRetry() || w.jobQueue == nil {
		w.logger.Error("planning_job_dead_lettered", fields...)
		w.nack(msg, job, false)
		return fmt.Errorf("planning job failed: %w", err)
	}

	delay := RetryDelay(job.RetryCount)
	retry := job.Delayed(w.clock.Now().Add(delay))
	retry.IncrementRetry()

	if enqueueErr := w.jobQueue.Enqueue(ctx, retry); enqueueErr != nil {
		w.logger.Error("failed_to_reenqueue_planning_job", append(fields, zap.String("enqueue_error", logpkg.SanitizeError(enqueueErr)))...)
		w.nack(msg, job, true)
		return fmt.Errorf("planning job failed, re-enqueue failed: %w", enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("failed_to_ack_retried_planning_job", zap.String("job_id", job.ID.String()), zap.String("error", logpkg.SanitizeError(ackErr)))
	}

	w.logger.Warn("planning_job_retry_scheduled", append(fields, zap.Duration("retry_in", delay))...)
	return nil
}

func (w *PlanningWorker) nack(msg queue.MessageInterface, job *queue.Job, requeue bool) {
	if err := msg.Nack(requeue); err != nil {
		w.logger.Error("failed_to_nack_planning_job",
			zap.String("job_id", job.ID.String()),
			zap.Bool("requeue", requeue),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}

// RetryDelay is the backoff before retry attempt n+1: 30s doubling up to 15m
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
