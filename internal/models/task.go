package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskTag is the category of a task; it drives energy bounds and preferred stages
type TaskTag string

const (
	TaskTagDeep     TaskTag = "deep"
	TaskTagCreative TaskTag = "creative"
	TaskTagAdmin    TaskTag = "admin"
	TaskTagPersonal TaskTag = "personal"
	TaskTagOther    TaskTag = "other"
)

// IsKnown reports whether the tag is one of the closed set of categories
func (t TaskTag) IsKnown() bool {
	switch t {
	case TaskTagDeep, TaskTagCreative, TaskTagAdmin, TaskTagPersonal, TaskTagOther:
		return true
	default:
		return false
	}
}

// IsDemanding reports whether tasks of this category count as cognitively demanding
func (t TaskTag) IsDemanding() bool {
	return t == TaskTagDeep || t == TaskTagCreative
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusScheduled  TaskStatus = "scheduled"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsKnown reports whether the status is a recognised task status
func (s TaskStatus) IsKnown() bool {
	switch s {
	case TaskStatusPending, TaskStatusScheduled, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// DefaultTaskDuration is the duration assumed when a task carries no estimate
const DefaultTaskDuration = 60 * time.Minute

// Task is a flexible, possibly auto-schedulable unit of work.
//
// StartTime and EndTime are dual-purpose: a date-only StartTime asks for
// automatic placement on that day, a fully-specified one is a manual pin.
// EndTime without StartTime is a deadline.
type Task struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title" validate:"max=500"`
	Tag               TaskTag    `json:"tag,omitempty" validate:"omitempty,task_tag"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"` // minutes
	Priority          int        `json:"priority"`
	Status            TaskStatus `json:"status,omitempty" validate:"omitempty,task_status"`
	IsAutoSchedule    bool       `json:"is_auto_schedule"`
	IsChunked         bool       `json:"is_chunked"`
	Chunks            []Task     `json:"chunks,omitempty" validate:"dive"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
}
