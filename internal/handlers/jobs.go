package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/request"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/validation"
	"go.uber.org/zap"
)

// JobEnqueuer accepts planning jobs for asynchronous processing
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// EnqueueJobRequest asks for a planning context to be built asynchronously and
// published to the results queue
type EnqueueJobRequest struct {
	Type          queue.JobType   `json:"type" validate:"required"`
	CorrelationID string          `json:"correlation_id,omitempty" validate:"omitempty,max=200"`
	NotBefore     *time.Time      `json:"not_before,omitempty"`
	NotAfter      *time.Time      `json:"not_after,omitempty"`
	Request       json.RawMessage `json:"request" validate:"required"`
}

// EnqueueJobResponse acknowledges an accepted job
type EnqueueJobResponse struct {
	JobID         string        `json:"job_id"`
	Type          queue.JobType `json:"type"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// EnqueueJob validates the embedded request now so malformed work never reaches the queue
func (h *ScheduleHandler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Asynchronous planning is not configured")
		return
	}

	var req EnqueueJobRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	job, err := buildJob(&req)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.Describe(err))
		return
	}
	if job.CorrelationID == "" {
		job.CorrelationID = request.RequestIDFromContext(r.Context())
	}

	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("failed_to_enqueue_planning_job",
			zap.Error(err),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to enqueue planning job")
		return
	}

	h.logger.Info("planning_job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("correlation_id", logger.SanitizeString(job.CorrelationID, 200)),
	)

	respondJSON(w, http.StatusAccepted, EnqueueJobResponse{
		JobID:         job.ID.String(),
		Type:          job.Type,
		CorrelationID: job.CorrelationID,
	})
}

// buildJob decodes and validates the embedded request for the job type. Errors wrap
// validation.ErrInvalidRequest.
func buildJob(req *EnqueueJobRequest) (*queue.Job, error) {
	if err := validation.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalidRequest, err)
	}
	if req.NotBefore != nil && req.NotAfter != nil && req.NotAfter.Before(*req.NotBefore) {
		return nil, fmt.Errorf("%w: not_after must not be before not_before", validation.ErrInvalidRequest)
	}

	// decode exactly as the worker will
	embedded := &queue.Job{Type: req.Type, Payload: req.Request}

	var payload any
	switch req.Type {
	case queue.JobTypePlanTask:
		var tr scheduling.TaskRequest
		if err := embedded.DecodePayload(&tr); err != nil {
			return nil, fmt.Errorf("%w: request is not a valid plan_task body", validation.ErrInvalidRequest)
		}
		if err := validation.ValidatePlanRequest(&tr); err != nil {
			return nil, err
		}
		payload = tr
	case queue.JobTypePlanChunks:
		var cr scheduling.ChunksRequest
		if err := embedded.DecodePayload(&cr); err != nil {
			return nil, fmt.Errorf("%w: request is not a valid plan_chunks body", validation.ErrInvalidRequest)
		}
		if err := validation.ValidateChunksRequest(&cr); err != nil {
			return nil, err
		}
		payload = cr
	default:
		return nil, fmt.Errorf("%w: %w: %s", validation.ErrInvalidRequest, queue.ErrUnknownJobType, logger.SanitizeString(string(req.Type), 50))
	}

	job, err := queue.NewJob(req.Type, payload)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownJobType) {
			return nil, fmt.Errorf("%w: %w", validation.ErrInvalidRequest, err)
		}
		return nil, err
	}
	job.CorrelationID = req.CorrelationID
	job.NotBefore = req.NotBefore
	job.NotAfter = req.NotAfter
	return job, nil
}
