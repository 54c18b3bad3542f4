package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"go.uber.org/zap"
)

// PlanInput is the already-loaded occupancy and energy data for one request
type PlanInput struct {
	Schedule            []models.ScheduleItem            `json:"schedule" validate:"max=1000,dive"`
	EnergyHistory       []models.EnergySample            `json:"energy_history,omitempty" validate:"max=1000,dive"`
	TodayEnergyForecast []models.EnergySample            `json:"today_energy_forecast,omitempty" validate:"max=96,dive"`
	HistoricalPatterns  []models.HistoricalEnergyPattern `json:"historical_patterns,omitempty" validate:"max=168,dive"`
}

// SlotSearch is the outcome of resolving and scanning for one task
type SlotSearch struct {
	Context     models.SchedulingContext `json:"context"`
	Decision    StrategyDecision         `json:"decision"`
	Requirement models.EnergyRequirement `json:"requirement"`
	Duration    time.Duration            `json:"-"`
	Slots       []models.Slot            `json:"slots"`
}

// BuildSchedulingContext resolves target date, strategy and window for task
func (e *Engine) BuildSchedulingContext(task models.Task, in PlanInput) (models.SchedulingContext, StrategyDecision) {
	target := e.DetermineTargetDate(task)
	decision := e.DetermineSchedulingStrategy(target)

	e.logger.Debug("scheduling_strategy_resolved",
		zap.String("task_id", task.ID.String()),
		zap.String("strategy", string(decision.Strategy)),
		zap.Bool("has_target_date", target != nil),
	)

	return models.SchedulingContext{
		Schedule:            in.Schedule,
		EnergyHistory:       in.EnergyHistory,
		TodayEnergyForecast: in.TodayEnergyForecast,
		HistoricalPatterns:  in.HistoricalPatterns,
		SchedulingStrategy:  decision.Strategy,
		TargetDate:          target,
		WindowDays:          e.CalculateSchedulingWindow(task),
	}, decision
}

// FindSlotsForTask runs date resolution, energy profiling and slot search for task.
// A chunked task is searched for slots that fit its longest chunk.
func (e *Engine) FindSlotsForTask(task models.Task, in PlanInput) SlotSearch {
	sc, decision := e.BuildSchedulingContext(task, in)
	req := EnergyRequirementsForTag(task.Tag)
	minutes := ExtractTaskDuration(task)
	if chunks := chunksOf(task); chunks != nil {
		minutes = longestChunk(chunks)
	}
	duration := time.Duration(minutes) * time.Minute

	return SlotSearch{
		Context:     sc,
		Decision:    decision,
		Requirement: req,
		Duration:    duration,
		Slots:       e.AvailableSlotsForContext(sc, duration, req),
	}
}

// PlanTask produces the planner hand-off for a single task. A chunked task is
// planned through PlanChunks so the hand-off carries its chunk info.
func (e *Engine) PlanTask(task models.Task, in PlanInput) PromptContext {
	if chunks := chunksOf(task); chunks != nil {
		return e.PlanChunks(chunks, in)
	}
	search := e.FindSlotsForTask(task, in)
	return e.BuildPromptContext(task, search.Context, search.Slots)
}

// chunksOf returns the chunks of a chunked task, or nil. Chunks without their own
// tag or dates take them from the parent.
func chunksOf(task models.Task) []models.Task {
	if !task.IsChunked || len(task.Chunks) == 0 {
		return nil
	}
	chunks := make([]models.Task, len(task.Chunks))
	for i, c := range task.Chunks {
		if c.Tag == "" {
			c.Tag = task.Tag
		}
		if c.StartTime == nil && c.EndTime == nil {
			c.StartTime = task.StartTime
			c.EndTime = task.EndTime
		}
		chunks[i] = c
	}
	return chunks
}

func longestChunk(chunks []models.Task) int {
	longest := 0
	for _, c := range chunks {
		if d := ExtractTaskDuration(c); d > longest {
			longest = d
		}
	}
	return longest
}

// PlanChunks produces the planner hand-off for the chunks of one task. Dates and
// category are resolved from the first chunk; slots must fit the longest chunk.
func (e *Engine) PlanChunks(chunks []models.Task, in PlanInput) PromptContext {
	var lead models.Task
	if len(chunks) > 0 {
		lead = chunks[0]
	}

	sc, _ := e.BuildSchedulingContext(lead, in)
	mc := BuildMultiChunkContext(sc, chunks)

	longest := longestChunk(chunks)
	if longest == 0 {
		longest = ExtractTaskDuration(lead)
	}

	slots := e.AvailableSlotsForContext(sc, time.Duration(longest)*time.Minute, EnergyRequirementsForTag(lead.Tag))
	return e.BuildMultiChunkPromptContext(chunks, mc, slots)
}
