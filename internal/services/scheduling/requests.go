package scheduling

import (
	"github.com/benvon/smart-schedule/internal/models"
)

// TaskRequest asks for slots or a planning context for one task
type TaskRequest struct {
	Task models.Task `json:"task"`
	PlanInput
}

// ChunksRequest asks for a planning context covering every chunk of one task
type ChunksRequest struct {
	Chunks []models.Task `json:"chunks" validate:"required,min=1,max=50,dive"`
	PlanInput
}

// RescheduleRequest carries a task and an optional edit to classify
type RescheduleRequest struct {
	Task    models.Task         `json:"task"`
	Changes *models.TaskChanges `json:"changes,omitempty"`
}

// RescheduleDecision is the answer to a RescheduleRequest
type RescheduleDecision struct {
	ShouldReschedule       bool `json:"should_reschedule"`
	NeedsInitialScheduling bool `json:"needs_initial_scheduling"`
}

// CognitiveLoadRequest carries the schedule to analyse
type CognitiveLoadRequest struct {
	Schedule []models.ScheduleItem `json:"schedule" validate:"max=1000,dive"`
}

// Decide classifies a reschedule request
func (e *Engine) Decide(req RescheduleRequest) RescheduleDecision {
	return RescheduleDecision{
		ShouldReschedule:       e.ShouldAutoReschedule(req.Task, req.Changes),
		NeedsInitialScheduling: e.NeedsInitialScheduling(req.Task),
	}
}
