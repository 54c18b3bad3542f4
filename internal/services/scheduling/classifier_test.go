package scheduling

import (
	"testing"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
)

func TestIsDateOnlyWithoutTime(t *testing.T) {
	t.Parallel()

	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	minusFive := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name string
		ts   *time.Time
		want bool
	}{
		{"nil", nil, false},
		{"utc midnight", timePtr(day(1)), true},
		{"one millisecond past midnight", timePtr(day(1).Add(time.Millisecond)), false},
		{"one second past midnight", timePtr(day(1).Add(time.Second)), false},
		{"mid morning", timePtr(at(1, 10, 30)), false},
		{"local midnight ahead of utc", timePtr(time.Date(2026, 10, 16, 0, 0, 0, 0, plusTwo)), false},
		{"utc midnight expressed in another zone", timePtr(time.Date(2026, 10, 15, 19, 0, 0, 0, minusFive)), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDateOnlyWithoutTime(tt.ts); got != tt.want {
				t.Errorf("IsDateOnlyWithoutTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_NeedsInitialScheduling(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{
			name: "auto schedule disabled",
			task: models.Task{IsAutoSchedule: false, StartTime: timePtr(day(1))},
			want: false,
		},
		{
			name: "date only start",
			task: models.Task{IsAutoSchedule: true, StartTime: timePtr(day(1))},
			want: true,
		},
		{
			name: "deadline later today",
			task: models.Task{IsAutoSchedule: true, EndTime: timePtr(at(0, 17, 0))},
			want: true,
		},
		{
			name: "deadline next week has no target date",
			task: models.Task{IsAutoSchedule: true, EndTime: timePtr(at(6, 17, 0))},
			want: false,
		},
		{
			name: "no dates at all",
			task: models.Task{IsAutoSchedule: true},
			want: false,
		},
		{
			name: "manual pin with deadline today",
			task: models.Task{IsAutoSchedule: true, StartTime: timePtr(at(0, 14, 0)), EndTime: timePtr(at(0, 15, 0))},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := engine.NeedsInitialScheduling(tt.task); got != tt.want {
				t.Errorf("NeedsInitialScheduling() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_ShouldAutoReschedule(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	base := models.Task{
		IsAutoSchedule:    true,
		Priority:          3,
		EstimatedDuration: intPtr(60),
		StartTime:         timePtr(day(2)),
	}
	manual := base
	manual.IsAutoSchedule = false

	tests := []struct {
		name    string
		task    models.Task
		changes *models.TaskChanges
		want    bool
	}{
		{
			name:    "auto schedule disabled ignores cleared start",
			task:    manual,
			changes: &models.TaskChanges{StartTime: models.StartTimeChange{Set: true}},
			want:    false,
		},
		{
			name:    "auto schedule disabled ignores priority jump",
			task:    manual,
			changes: &models.TaskChanges{Priority: intPtr(9)},
			want:    false,
		},
		{
			name:    "auto schedule disabled without changes",
			task:    manual,
			changes: nil,
			want:    false,
		},
		{
			name:    "no changes falls back to initial scheduling",
			task:    base,
			changes: nil,
			want:    true,
		},
		{
			name:    "cleared start requests placement",
			task:    base,
			changes: &models.TaskChanges{StartTime: models.StartTimeChange{Set: true}},
			want:    true,
		},
		{
			name:    "date only start requests placement",
			task:    base,
			changes: &models.TaskChanges{StartTime: models.StartTimeChange{Set: true, Value: timePtr(day(3))}},
			want:    true,
		},
		{
			name: "manual time pin wins over priority jump",
			task: base,
			changes: &models.TaskChanges{
				StartTime: models.StartTimeChange{Set: true, Value: timePtr(at(3, 14, 30))},
				Priority:  intPtr(8),
			},
			want: false,
		},
		{
			name:    "priority up by two",
			task:    base,
			changes: &models.TaskChanges{Priority: intPtr(5)},
			want:    true,
		},
		{
			name:    "priority down by two",
			task:    base,
			changes: &models.TaskChanges{Priority: intPtr(1)},
			want:    true,
		},
		{
			name:    "priority up by one",
			task:    base,
			changes: &models.TaskChanges{Priority: intPtr(4)},
			want:    false,
		},
		{
			name:    "duration up by thirty",
			task:    base,
			changes: &models.TaskChanges{EstimatedDuration: intPtr(90)},
			want:    true,
		},
		{
			name:    "duration down by thirty",
			task:    base,
			changes: &models.TaskChanges{EstimatedDuration: intPtr(30)},
			want:    true,
		},
		{
			name:    "duration up by twenty nine",
			task:    base,
			changes: &models.TaskChanges{EstimatedDuration: intPtr(89)},
			want:    false,
		},
		{
			name:    "empty change set",
			task:    base,
			changes: &models.TaskChanges{},
			want:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := engine.ShouldAutoReschedule(tt.task, tt.changes); got != tt.want {
				t.Errorf("ShouldAutoReschedule() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_ShouldAutoReschedule_DefaultDurationBaseline(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	task := models.Task{IsAutoSchedule: true, Priority: 3}

	// no estimate means the 60 minute default is the baseline
	if !engine.ShouldAutoReschedule(task, &models.TaskChanges{EstimatedDuration: intPtr(90)}) {
		t.Error("Expected 60 -> 90 minutes to trigger a reschedule")
	}
	if engine.ShouldAutoReschedule(task, &models.TaskChanges{EstimatedDuration: intPtr(75)}) {
		t.Error("Expected 60 -> 75 minutes not to trigger a reschedule")
	}
}

func TestEngine_ShouldAutoReschedule_CustomThresholds(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(WithThresholds(Thresholds{PriorityDelta: 3, DurationDelta: time.Hour}))
	task := models.Task{IsAutoSchedule: true, Priority: 3, EstimatedDuration: intPtr(60)}

	if engine.ShouldAutoReschedule(task, &models.TaskChanges{Priority: intPtr(5)}) {
		t.Error("Expected a priority delta of 2 to be ignored with threshold 3")
	}
	if !engine.ShouldAutoReschedule(task, &models.TaskChanges{Priority: intPtr(6)}) {
		t.Error("Expected a priority delta of 3 to trigger with threshold 3")
	}
	if engine.ShouldAutoReschedule(task, &models.TaskChanges{EstimatedDuration: intPtr(100)}) {
		t.Error("Expected a 40 minute delta to be ignored with a one hour threshold")
	}
}

func TestEngine_Decide(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	dateOnly := models.Task{IsAutoSchedule: true, Priority: 3, StartTime: timePtr(day(1))}
	pinned := models.Task{IsAutoSchedule: true, Priority: 3, StartTime: timePtr(at(1, 10, 0))}

	tests := []struct {
		name string
		req  RescheduleRequest
		want RescheduleDecision
	}{
		{
			name: "date only without changes",
			req:  RescheduleRequest{Task: dateOnly},
			want: RescheduleDecision{ShouldReschedule: true, NeedsInitialScheduling: true},
		},
		{
			name: "pinned task small priority bump",
			req:  RescheduleRequest{Task: pinned, Changes: &models.TaskChanges{Priority: intPtr(4)}},
			want: RescheduleDecision{},
		},
		{
			name: "pinned task large priority jump",
			req:  RescheduleRequest{Task: pinned, Changes: &models.TaskChanges{Priority: intPtr(6)}},
			want: RescheduleDecision{ShouldReschedule: true},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := engine.Decide(tt.req); got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
