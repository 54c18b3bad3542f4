package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
)

// EnergyRequirementsForTag maps a task category to the energy range it needs
func EnergyRequirementsForTag(tag models.TaskTag) models.EnergyRequirement {
	switch tag {
	case models.TaskTagDeep:
		return models.EnergyRequirement{Min: 0.7, Max: 1.0}
	case models.TaskTagCreative:
		return models.EnergyRequirement{Min: 0.4, Max: 1.0}
	case models.TaskTagAdmin:
		return models.EnergyRequirement{Min: 0.3, Max: 0.7}
	case models.TaskTagPersonal:
		return models.EnergyRequirement{Min: 0.1, Max: 0.7}
	default:
		return models.EnergyRequirement{Min: 0.3, Max: 1.0}
	}
}

// OptimalEnergyStagesForTag returns the circadian stages a category fits best.
// Categories without a preference return nil.
func OptimalEnergyStagesForTag(tag models.TaskTag) []models.EnergyStage {
	switch tag {
	case models.TaskTagDeep:
		return []models.EnergyStage{models.EnergyStageMorningPeak}
	case models.TaskTagCreative:
		return []models.EnergyStage{models.EnergyStageMorningPeak, models.EnergyStageAfternoonRebound}
	case models.TaskTagAdmin:
		return []models.EnergyStage{models.EnergyStageMiddayDip}
	case models.TaskTagPersonal:
		return []models.EnergyStage{models.EnergyStageMiddayDip, models.EnergyStageWindDown}
	default:
		return nil
	}
}

// ExtractTaskDuration returns the task estimate in minutes, or the 60 minute default
func ExtractTaskDuration(task models.Task) int {
	if task.EstimatedDuration != nil && *task.EstimatedDuration > 0 {
		return *task.EstimatedDuration
	}
	return int(models.DefaultTaskDuration / time.Minute)
}
