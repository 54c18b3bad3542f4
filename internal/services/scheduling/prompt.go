package scheduling

import (
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/google/uuid"
)

// TaskSummary is the subset of a task a downstream planner needs
type TaskSummary struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Tag             models.TaskTag `json:"tag,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	Priority        int            `json:"priority"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
}

// EnergyProfile is the energy range and preferred stages for the work being placed
type EnergyProfile struct {
	Min           float64              `json:"min"`
	Max           float64              `json:"max"`
	OptimalStages []models.EnergyStage `json:"optimal_stages"`
}

// Constraints are the hard rules a downstream planner must respect
type Constraints struct {
	MustScheduleInFuture string                    `json:"must_schedule_in_future"`
	BufferAroundItems    string                    `json:"buffer_around_items"`
	DurationMinutes      int                       `json:"duration_minutes"`
	Deadline             *time.Time                `json:"deadline,omitempty"`
	SchedulingStrategy   models.SchedulingStrategy `json:"scheduling_strategy"`
	TargetDate           *time.Time                `json:"target_date,omitempty"`
}

// PromptContext is the structured hand-off to the downstream planner/generator
type PromptContext struct {
	CurrentTime        time.Time             `json:"current_time"`
	Task               *TaskSummary          `json:"task,omitempty"`
	Chunks             []TaskSummary         `json:"chunks,omitempty"`
	ChunkInfo          *models.ChunkInfo     `json:"chunk_info,omitempty"`
	Schedule           []models.ScheduleItem `json:"schedule"`
	AvailableSlots     []models.Slot         `json:"available_slots"`
	CognitiveLoad      CognitiveLoad         `json:"cognitive_load"`
	EnergyRequirements EnergyProfile         `json:"energy_requirements"`
	Constraints        Constraints           `json:"constraints"`
	Note               string                `json:"note"`
}

// BuildPromptContext assembles the hand-off for a single task. It makes no placement decisions.
func (e *Engine) BuildPromptContext(task models.Task, sc models.SchedulingContext, slots []models.Slot) PromptContext {
	now := e.clock.Now()
	summary := summarize(task)

	note := fmt.Sprintf("Schedule %q (%d minutes) in one of the available slots. The first slot is the preferred option; do not overlap existing schedule items.",
		task.Title, summary.DurationMinutes)
	if len(slots) == 0 {
		note = fmt.Sprintf("No automatic placement is possible right now for %q; no slot satisfies the energy and conflict constraints.", task.Title)
	}

	return PromptContext{
		CurrentTime:        now,
		Task:               &summary,
		Schedule:           nonNilItems(sc.Schedule),
		AvailableSlots:     nonNilSlots(slots),
		CognitiveLoad:      AnalyzeCognitiveLoad(sc.Schedule),
		EnergyRequirements: profileFor(task.Tag),
		Constraints:        e.constraints(now, sc, summary.DurationMinutes, summary.Deadline),
		Note:               note,
	}
}

// BuildMultiChunkPromptContext assembles the hand-off for all chunks of one task
func (e *Engine) BuildMultiChunkPromptContext(chunks []models.Task, mc models.MultiChunkContext, slots []models.Slot) PromptContext {
	now := e.clock.Now()

	summaries := make([]TaskSummary, 0, len(chunks))
	total := 0
	var deadline *time.Time
	for _, chunk := range chunks {
		s := summarize(chunk)
		summaries = append(summaries, s)
		total += s.DurationMinutes
		if s.Deadline != nil && (deadline == nil || s.Deadline.Before(*deadline)) {
			deadline = s.Deadline
		}
	}

	tag := models.TaskTagOther
	if len(chunks) > 0 {
		tag = chunks[0].Tag
	}

	info := mc.ChunkInfo
	note := fmt.Sprintf("This is a multi-chunk scheduling request: optimize the placement of all %d chunks in order across the available slots and avoid conflicts with existing schedule items and between chunks.",
		len(chunks))

	return PromptContext{
		CurrentTime:        now,
		Chunks:             summaries,
		ChunkInfo:          &info,
		Schedule:           nonNilItems(mc.Schedule),
		AvailableSlots:     nonNilSlots(slots),
		CognitiveLoad:      AnalyzeCognitiveLoad(mc.Schedule),
		EnergyRequirements: profileFor(tag),
		Constraints:        e.constraints(now, mc.SchedulingContext, total, deadline),
		Note:               note,
	}
}

func (e *Engine) constraints(now time.Time, sc models.SchedulingContext, durationMinutes int, deadline *time.Time) Constraints {
	return Constraints{
		MustScheduleInFuture: fmt.Sprintf("Slots must start at least %d minutes after the current time (%s)",
			int(NowBuffer/time.Minute), now.UTC().Format(time.RFC3339)),
		BufferAroundItems:  fmt.Sprintf("Keep %d minutes free before and after every existing schedule item", int(ItemBuffer/time.Minute)),
		DurationMinutes:    durationMinutes,
		Deadline:           deadline,
		SchedulingStrategy: sc.SchedulingStrategy,
		TargetDate:         sc.TargetDate,
	}
}

func summarize(task models.Task) TaskSummary {
	s := TaskSummary{
		ID:              task.ID,
		Title:           task.Title,
		Tag:             task.Tag,
		DurationMinutes: ExtractTaskDuration(task),
		Priority:        task.Priority,
	}
	// only a bare end time is a deadline
	if task.StartTime == nil && task.EndTime != nil {
		d := *task.EndTime
		s.Deadline = &d
	}
	return s
}

func profileFor(tag models.TaskTag) EnergyProfile {
	req := EnergyRequirementsForTag(tag)
	stages := OptimalEnergyStagesForTag(tag)
	if stages == nil {
		stages = []models.EnergyStage{}
	}
	return EnergyProfile{Min: req.Min, Max: req.Max, OptimalStages: stages}
}

func nonNilItems(items []models.ScheduleItem) []models.ScheduleItem {
	if items == nil {
		return []models.ScheduleItem{}
	}
	return items
}

func nonNilSlots(slots []models.Slot) []models.Slot {
	if slots == nil {
		return []models.Slot{}
	}
	return slots
}
