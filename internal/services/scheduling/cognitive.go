package scheduling

import (
	"github.com/benvon/smart-schedule/internal/models"
)

const (
	// NoBufferNeeded is recommended when nothing demanding is scheduled
	NoBufferNeeded = "No buffer needed"
	// DemandingTaskBuffer is recommended once demanding work is on the schedule
	DemandingTaskBuffer = "At least 30 minutes between demanding tasks"
)

// CognitiveLoad estimates how much demanding work already occupies the schedule
type CognitiveLoad struct {
	RecentDeepTaskCount int    `json:"recent_deep_task_count"`
	RecommendedBuffer   string `json:"recommended_buffer"`
}

// CountCognitiveTasks counts deep and creative tasks
func CountCognitiveTasks(tasks []models.Task) int {
	count := 0
	for _, task := range tasks {
		if task.Tag.IsDemanding() {
			count++
		}
	}
	return count
}

// AnalyzeCognitiveLoad counts demanding task items on the schedule. An item with a
// propagated tag counts only when that tag is deep or creative; an untagged task
// item counts; events never count.
func AnalyzeCognitiveLoad(schedule []models.ScheduleItem) CognitiveLoad {
	count := 0
	for _, item := range schedule {
		if item.Type != models.ItemTypeTask {
			continue
		}
		if item.Tag == "" || item.Tag.IsDemanding() {
			count++
		}
	}

	load := CognitiveLoad{
		RecentDeepTaskCount: count,
		RecommendedBuffer:   NoBufferNeeded,
	}
	if count > 0 {
		load.RecommendedBuffer = DemandingTaskBuffer
	}
	return load
}
