package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/validation"
	"github.com/spf13/cobra"
)

type enqueueOutput struct {
	JobID         string        `json:"job_id"`
	Type          queue.JobType `json:"type"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// NewEnqueueCmd creates the enqueue command
func NewEnqueueCmd(g *Globals) *cobra.Command {
	var (
		jobType       string
		correlationID string
		notBefore     string
		notAfter      string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a planning job for the worker",
		Long:  "Validate a plan_task or plan_chunks request and publish it to the RabbitMQ jobs queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.RequireQueue(); err != nil {
				return err
			}

			job, err := buildJob(cmd, g, queue.JobType(jobType))
			if err != nil {
				return err
			}
			job.CorrelationID = correlationID
			if job.NotBefore, err = parseOptionalTime("--not-before", notBefore); err != nil {
				return err
			}
			if job.NotAfter, err = parseOptionalTime("--not-after", notAfter); err != nil {
				return err
			}
			if job.NotBefore != nil && job.NotAfter != nil && job.NotAfter.Before(*job.NotBefore) {
				return fmt.Errorf("--not-after must not be before --not-before")
			}

			log, err := g.logger()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync(log)
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			q, err := g.Connect(ctx, cfg.RabbitMQURL, log)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() {
				_ = q.Close()
			}()

			if err := q.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), g.Output, enqueueOutput{
				JobID:         job.ID.String(),
				Type:          job.Type,
				CorrelationID: job.CorrelationID,
			})
		},
	}

	cmd.Flags().StringVarP(&jobType, "type", "t", string(queue.JobTypePlanTask), "Job type: plan_task or plan_chunks")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Identifier echoed on the published result")
	cmd.Flags().StringVar(&notBefore, "not-before", "", "Earliest RFC 3339 instant the worker may process the job")
	cmd.Flags().StringVar(&notAfter, "not-after", "", "RFC 3339 instant after which the job is dropped")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Connect and publish timeout")

	return cmd
}

// buildJob reads and validates the request body the job type expects
func buildJob(cmd *cobra.Command, g *Globals, jobType queue.JobType) (*queue.Job, error) {
	var payload any
	switch jobType {
	case queue.JobTypePlanTask:
		var req scheduling.TaskRequest
		if err := readRequest(cmd, g.File, &req); err != nil {
			return nil, err
		}
		if err := validation.ValidatePlanRequest(&req); err != nil {
			return nil, describe(err)
		}
		payload = req
	case queue.JobTypePlanChunks:
		var req scheduling.ChunksRequest
		if err := readRequest(cmd, g.File, &req); err != nil {
			return nil, err
		}
		if err := validation.ValidateChunksRequest(&req); err != nil {
			return nil, describe(err)
		}
		payload = req
	default:
		return nil, fmt.Errorf("%w: %s", queue.ErrUnknownJobType, jobType)
	}

	return queue.NewJob(jobType, payload)
}

func parseOptionalTime(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp: %w", flag, err)
	}
	t = t.UTC()
	return &t, nil
}
