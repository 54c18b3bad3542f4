package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
)

// StrategyDecision is the resolved search mode for a target date
type StrategyDecision struct {
	Strategy models.SchedulingStrategy `json:"strategy"`
	IsToday  bool                      `json:"is_today"`
}

// DetermineTargetDate derives the calendar day a task should be placed on.
// A date-only start wins; otherwise a deadline falling today yields today.
func (e *Engine) DetermineTargetDate(task models.Task) *time.Time {
	if IsDateOnlyWithoutTime(task.StartTime) {
		d := task.StartTime.UTC()
		return &d
	}

	now := e.clock.Now()
	if task.EndTime != nil && sameDay(*task.EndTime, now) {
		today := startOfDay(now)
		return &today
	}

	return nil
}

// DetermineSchedulingStrategy picks today mode only for a target on the current day
func (e *Engine) DetermineSchedulingStrategy(targetDate *time.Time) StrategyDecision {
	if targetDate != nil && sameDay(*targetDate, e.clock.Now()) {
		return StrategyDecision{Strategy: models.StrategyToday, IsToday: true}
	}
	return StrategyDecision{Strategy: models.StrategyFuture, IsToday: false}
}

// CalculateSchedulingWindow returns how many days to search, in [1, MaxWindowDays].
// A deadline closer than the default window narrows it so the deadline day is the last one searched.
func (e *Engine) CalculateSchedulingWindow(task models.Task) int {
	days := MaxWindowDays
	if task.EndTime != nil {
		today := startOfDay(e.clock.Now())
		untilDeadline := int(startOfDay(*task.EndTime).Sub(today).Hours()/24) + 1
		if untilDeadline < days {
			days = untilDeadline
		}
	}
	if days < 1 {
		days = 1
	}
	return days
}
