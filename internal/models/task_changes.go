package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StartTimeChange distinguishes an absent start_time key from an explicit null.
// Set is false when the key was not supplied; Set with a nil Value is a clear.
type StartTimeChange struct {
	Set   bool
	Value *time.Time
}

// Cleared reports whether the change explicitly removes the start time
func (c StartTimeChange) Cleared() bool {
	return c.Set && c.Value == nil
}

// TaskChanges is a set of edits applied to a task
type TaskChanges struct {
	StartTime         StartTimeChange `json:"-"`
	Priority          *int            `json:"priority,omitempty"`
	EstimatedDuration *int            `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"` // minutes
}

// UnmarshalJSON decodes changes, recording whether start_time was present at all
func (c *TaskChanges) UnmarshalJSON(data []byte) error {
	type plain TaskChanges
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = TaskChanges(p)
	if v, ok := raw["start_time"]; ok {
		c.StartTime.Set = true
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			var ts time.Time
			if err := json.Unmarshal(v, &ts); err != nil {
				return fmt.Errorf("invalid start_time: %w", err)
			}
			c.StartTime.Value = &ts
		}
	}
	return nil
}

// MarshalJSON encodes changes, emitting start_time only when it was set
func (c TaskChanges) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if c.StartTime.Set {
		out["start_time"] = c.StartTime.Value
	}
	if c.Priority != nil {
		out["priority"] = *c.Priority
	}
	if c.EstimatedDuration != nil {
		out["estimated_duration"] = *c.EstimatedDuration
	}
	return json.Marshal(out)
}
