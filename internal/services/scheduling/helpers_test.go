package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/google/uuid"
)

// testNow is Thursday 2026-10-15 09:00 UTC
var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithClock(clock.Fixed(testNow))}, opts...)...)
}

func day(offset int) time.Time {
	return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func at(offset, hour, minute int) time.Time {
	return day(offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(v int) *int {
	return &v
}

func meeting(start, end time.Time) models.ScheduleItem {
	return models.ScheduleItem{
		ID:        uuid.New(),
		Title:     "Meeting",
		Type:      models.ItemTypeEvent,
		StartTime: start,
		EndTime:   end,
	}
}

func taskItem(start, end time.Time, tag models.TaskTag) models.ScheduleItem {
	return models.ScheduleItem{
		ID:        uuid.New(),
		Title:     "Placed task",
		Type:      models.ItemTypeTask,
		Tag:       tag,
		StartTime: start,
		EndTime:   end,
	}
}

func startTimes(slots []models.Slot) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime)
	}
	return out
}
