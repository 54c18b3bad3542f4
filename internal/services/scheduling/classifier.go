package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
)

// IsDateOnlyWithoutTime reports whether ts carries a date but no time of day.
// Sub-day fields are evaluated in UTC; nil is never date-only.
func IsDateOnlyWithoutTime(ts *time.Time) bool {
	if ts == nil {
		return false
	}
	u := ts.UTC()
	return u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0
}

// NeedsInitialScheduling reports whether an auto-schedulable task still needs a
// time placed. A fully specified start time is a manual pin and never qualifies.
func (e *Engine) NeedsInitialScheduling(task models.Task) bool {
	if !task.IsAutoSchedule {
		return false
	}
	if task.StartTime != nil && !IsDateOnlyWithoutTime(task.StartTime) {
		return false
	}
	return e.DetermineTargetDate(task) != nil
}

// ShouldAutoReschedule decides whether the engine should (re)place task.
// A nil changes means the task is being evaluated as-is.
func (e *Engine) ShouldAutoReschedule(task models.Task, changes *models.TaskChanges) bool {
	if !task.IsAutoSchedule {
		return false
	}
	if changes == nil {
		return e.NeedsInitialScheduling(task)
	}

	if changes.StartTime.Set {
		if changes.StartTime.Value == nil {
			return true
		}
		// a concrete time is a manual pin and overrides every other edit
		return IsDateOnlyWithoutTime(changes.StartTime.Value)
	}

	if changes.Priority != nil && abs(*changes.Priority-task.Priority) >= e.thresholds.PriorityDelta {
		return true
	}

	if changes.EstimatedDuration != nil {
		delta := time.Duration(abs(*changes.EstimatedDuration-ExtractTaskDuration(task))) * time.Minute
		if delta >= e.thresholds.DurationDelta {
			return true
		}
	}

	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
