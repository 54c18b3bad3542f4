package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypePlanTask assembles the planning context for a single task
	JobTypePlanTask JobType = "plan_task"
	// JobTypePlanChunks assembles the planning context for the chunks of one task
	JobTypePlanChunks JobType = "plan_chunks"
)

// DefaultMaxRetries is the retry budget given to new jobs
const DefaultMaxRetries = 3

var (
	// ErrUnknownJobType is returned for job types no processor handles
	ErrUnknownJobType = errors.New("unknown job type")
	// ErrEmptyPayload is returned when a job carries no request body
	ErrEmptyPayload = errors.New("job payload is empty")
)

// IsKnown reports whether t is a job type this service produces
func (t JobType) IsKnown() bool {
	return t == JobTypePlanTask || t == JobTypePlanChunks
}

// Job represents a job in the queue
type Job struct {
	ID            uuid.UUID       `json:"id"`
	Type          JobType         `json:"type"`
	CorrelationID string          `json:"correlation_id,omitempty"` // Caller supplied, echoed on the result
	Payload       json.RawMessage `json:"payload"`
	NotBefore     *time.Time      `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter      *time.Time      `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt     time.Time       `json:"created_at"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
}

// NewJob creates a new job carrying payload encoded as JSON
func NewJob(jobType JobType, payload any) (*Job, error) {
	if !jobType.IsKnown() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	if payload == nil {
		return nil, ErrEmptyPayload
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    raw,
		CreatedAt:  time.Now().UTC(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}, nil
}

// DecodePayload unmarshals the job payload into v. Unknown fields and trailing
// data are rejected, matching the HTTP and CLI decoders.
func (j *Job) DecodePayload(v any) error {
	if len(j.Payload) == 0 || string(j.Payload) == "null" {
		return ErrEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(j.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", j.Type, err)
	}
	if dec.More() {
		return fmt.Errorf("failed to decode %s payload: trailing data", j.Type)
	}
	return nil
}

// ShouldProcess checks if the job should be processed at now
func (j *Job) ShouldProcess(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpired(now)
}

// IsExpired checks if the job has passed its NotAfter
func (j *Job) IsExpired(now time.Time) bool {
	if j.NotAfter == nil {
		return false
	}
	return now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Delayed returns a copy of the job that becomes eligible at notBefore. The retry
// count is carried over unchanged.
func (j *Job) Delayed(notBefore time.Time) *Job {
	cp := *j
	cp.NotBefore = &notBefore
	return &cp
}

// Result is the message published for each processed planning job
type Result struct {
	JobID         uuid.UUID       `json:"job_id"`
	Type          JobType         `json:"type"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
	Context       json.RawMessage `json:"context"`
}

// NewResult wraps an assembled context for job
func NewResult(job *Job, planContext any, completedAt time.Time) (*Result, error) {
	raw, err := json.Marshal(planContext)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result context: %w", err)
	}
	return &Result{
		JobID:         job.ID,
		Type:          job.Type,
		CorrelationID: job.CorrelationID,
		CompletedAt:   completedAt.UTC(),
		Context:       raw,
	}, nil
}
