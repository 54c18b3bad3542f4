package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates what occupies a block of time
type ItemType string

const (
	ItemTypeTask  ItemType = "task"
	ItemTypeEvent ItemType = "event"
)

// ScheduleItem is an existing occupant of time. It is ground truth and is never moved.
type ScheduleItem struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title,omitempty"`
	Type      ItemType  `json:"type" validate:"required,item_type"`
	Tag       TaskTag   `json:"tag,omitempty" validate:"omitempty,task_tag"` // propagated from the originating task, if any
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
}

// Overlaps reports whether [start, end) intersects the item widened by buffer on both sides
func (s ScheduleItem) Overlaps(start, end time.Time, buffer time.Duration) bool {
	return start.Before(s.EndTime.Add(buffer)) && end.After(s.StartTime.Add(-buffer))
}
