package commands

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/benvon/smart-schedule/internal/validation"
	"github.com/spf13/cobra"
)

type slotsOutput struct {
	Strategy        models.SchedulingStrategy `json:"strategy"`
	TargetDate      *time.Time                `json:"target_date"`
	WindowDays      int                       `json:"window_days"`
	DurationMinutes int                       `json:"duration_minutes"`
	Requirement     models.EnergyRequirement  `json:"requirement"`
	Slots           []models.Slot             `json:"slots"`
}

// NewSlotsCmd creates the slots command
func NewSlotsCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "Find candidate slots for a task",
		Long:  "Resolve the scheduling strategy for a task and list the energy-matched slots that fit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, validation.ValidatePlanRequest, func(e *scheduling.Engine, req *scheduling.TaskRequest) any {
				search := e.FindSlotsForTask(req.Task, req.PlanInput)
				slots := search.Slots
				if slots == nil {
					slots = []models.Slot{}
				}
				return slotsOutput{
					Strategy:        search.Decision.Strategy,
					TargetDate:      search.Context.TargetDate,
					WindowDays:      search.Context.WindowDays,
					DurationMinutes: int(search.Duration / time.Minute),
					Requirement:     search.Requirement,
					Slots:           slots,
				}
			})
		},
	}
}

// NewPlanCmd creates the plan command
func NewPlanCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Build the planning context for a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, validation.ValidatePlanRequest, func(e *scheduling.Engine, req *scheduling.TaskRequest) any {
				return e.PlanTask(req.Task, req.PlanInput)
			})
		},
	}
}

// NewChunksCmd creates the chunks command
func NewChunksCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "chunks",
		Short: "Build one planning context for every chunk of a split task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, validation.ValidateChunksRequest, func(e *scheduling.Engine, req *scheduling.ChunksRequest) any {
				return e.PlanChunks(req.Chunks, req.PlanInput)
			})
		},
	}
}

// NewRescheduleCmd creates the reschedule command
func NewRescheduleCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule",
		Short: "Decide whether a task edit should trigger automatic placement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, validation.ValidateRescheduleRequest, func(e *scheduling.Engine, req *scheduling.RescheduleRequest) any {
				return e.Decide(*req)
			})
		},
	}
}

// NewCognitiveLoadCmd creates the cognitive-load command
func NewCognitiveLoadCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:     "cognitive-load",
		Aliases: []string{"cognitive"},
		Short:   "Analyse how much demanding work a schedule holds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, validation.ValidateCognitiveLoadRequest, func(_ *scheduling.Engine, req *scheduling.CognitiveLoadRequest) any {
				return scheduling.AnalyzeCognitiveLoad(req.Schedule)
			})
		},
	}
}
