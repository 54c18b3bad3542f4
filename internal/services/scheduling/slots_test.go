package scheduling

import (
	"testing"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/google/go-cmp/cmp"
)

func sample(t time.Time, level float64, stage models.EnergyStage) models.EnergySample {
	return models.EnergySample{Time: t, EnergyLevel: level, EnergyStage: stage}
}

func TestEngine_FindTodaySlots(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	schedule := []models.ScheduleItem{meeting(at(0, 13, 30), at(0, 14, 0))}
	forecast := []models.EnergySample{
		sample(at(0, 9, 0), 0.9, models.EnergyStageMorningPeak),
		sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak),
		sample(at(0, 11, 0), 0.4, models.EnergyStageMorningPeak),
		sample(at(0, 12, 0), 0.8, models.EnergyStageSleepPhase),
		sample(at(0, 13, 0), 0.8, models.EnergyStageMiddayDip),
		sample(at(0, 14, 0), 0.8, models.EnergyStageMiddayDip),
		sample(at(0, 16, 0), 0.8, models.EnergyStageAfternoonRebound),
	}

	slots := engine.FindTodaySlots(schedule, forecast, time.Hour, EnergyRequirementsForTag(models.TaskTagDeep))

	want := []time.Time{at(0, 10, 0), at(0, 16, 0)}
	if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
		t.Fatalf("Slot start times mismatch (-want +got):\n%s", diff)
	}
	for _, s := range slots {
		if !s.IsToday {
			t.Errorf("Expected IsToday for slot at %v", s.StartTime)
		}
		if s.IsHistorical {
			t.Errorf("Expected forecast slot at %v not to be historical", s.StartTime)
		}
		if got := s.EndTime.Sub(s.StartTime); got != time.Hour {
			t.Errorf("Expected slot length 1h, got %v", got)
		}
	}
	if slots[0].EnergyStage != models.EnergyStageMorningPeak || slots[0].EnergyLevel != 0.9 {
		t.Errorf("Expected first slot to carry its sample energy, got %+v", slots[0])
	}
}

func TestEngine_FindTodaySlots_Filters(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	deep := EnergyRequirementsForTag(models.TaskTagDeep)

	tests := []struct {
		name     string
		schedule []models.ScheduleItem
		forecast []models.EnergySample
		want     []time.Time
	}{
		{
			name:     "placed task blocks slot",
			schedule: []models.ScheduleItem{taskItem(at(0, 10, 30), at(0, 11, 0), models.TaskTagAdmin)},
			forecast: []models.EnergySample{sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{},
		},
		{
			name:     "item ending exactly one buffer before is fine",
			schedule: []models.ScheduleItem{meeting(at(0, 9, 15), at(0, 9, 50))},
			forecast: []models.EnergySample{sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{at(0, 10, 0)},
		},
		{
			name:     "item ending inside the buffer blocks",
			schedule: []models.ScheduleItem{meeting(at(0, 9, 15), at(0, 9, 55))},
			forecast: []models.EnergySample{sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{},
		},
		{
			name:     "item starting exactly one buffer after is fine",
			schedule: []models.ScheduleItem{meeting(at(0, 11, 10), at(0, 12, 0))},
			forecast: []models.EnergySample{sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{at(0, 10, 0)},
		},
		{
			name:     "slot exactly fifteen minutes out is allowed",
			forecast: []models.EnergySample{sample(at(0, 9, 15), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{at(0, 9, 15)},
		},
		{
			name:     "slot fourteen minutes out is dropped",
			forecast: []models.EnergySample{sample(at(0, 9, 14), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{},
		},
		{
			name:     "energy bounds are inclusive",
			forecast: []models.EnergySample{sample(at(0, 10, 0), 0.7, models.EnergyStageMorningPeak), sample(at(0, 11, 0), 1.0, models.EnergyStageMorningPeak)},
			want:     []time.Time{at(0, 10, 0), at(0, 11, 0)},
		},
		{
			name:     "forecast order is kept",
			forecast: []models.EnergySample{sample(at(0, 15, 0), 0.9, models.EnergyStageAfternoonRebound), sample(at(0, 10, 0), 0.9, models.EnergyStageMorningPeak)},
			want:     []time.Time{at(0, 15, 0), at(0, 10, 0)},
		},
		{
			name: "empty forecast",
			want: []time.Time{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			slots := engine.FindTodaySlots(tt.schedule, tt.forecast, time.Hour, deep)
			if diff := cmp.Diff(tt.want, startTimes(slots)); diff != "" {
				t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_FindFutureSlots(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	target := day(2)
	schedule := []models.ScheduleItem{meeting(at(2, 10, 0), at(2, 11, 0))}
	patterns := []models.HistoricalEnergyPattern{
		{Hour: 14, AverageEnergy: 0.8},
		{Hour: 10, AverageEnergy: 0.9},
		{Hour: 8, AverageEnergy: 0.5},
	}

	slots := engine.FindFutureSlots(schedule, target, time.Hour, EnergyRequirementsForTag(models.TaskTagCreative), patterns)

	want := []time.Time{at(2, 8, 0), at(2, 14, 0)}
	if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
		t.Fatalf("Slot start times mismatch (-want +got):\n%s", diff)
	}
	for _, s := range slots {
		if s.IsToday || !s.IsHistorical {
			t.Errorf("Expected historical future slot, got %+v", s)
		}
	}
	if slots[0].EnergyStage != models.EnergyStageMorningPeak {
		t.Errorf("Expected 08:00 stage %s, got %s", models.EnergyStageMorningPeak, slots[0].EnergyStage)
	}
	if slots[1].EnergyStage != models.EnergyStageMiddayDip {
		t.Errorf("Expected 14:00 stage %s, got %s", models.EnergyStageMiddayDip, slots[1].EnergyStage)
	}

	// input must stay untouched
	if patterns[0].Hour != 14 {
		t.Errorf("Expected patterns to keep caller order, got first hour %d", patterns[0].Hour)
	}
}

func TestEngine_FindFutureSlots_EdgeCases(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	deep := EnergyRequirementsForTag(models.TaskTagDeep)

	t.Run("no patterns", func(t *testing.T) {
		t.Parallel()
		slots := engine.FindFutureSlots(nil, day(1), time.Hour, deep, nil)
		if slots == nil || len(slots) != 0 {
			t.Errorf("Expected empty non-nil slots, got %v", slots)
		}
	})

	t.Run("out of range hours are skipped", func(t *testing.T) {
		t.Parallel()
		patterns := []models.HistoricalEnergyPattern{{Hour: -1, AverageEnergy: 0.9}, {Hour: 24, AverageEnergy: 0.9}, {Hour: 9, AverageEnergy: 0.9}}
		slots := engine.FindFutureSlots(nil, day(1), time.Hour, deep, patterns)
		if diff := cmp.Diff([]time.Time{at(1, 9, 0)}, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("target today drops past hours", func(t *testing.T) {
		t.Parallel()
		patterns := []models.HistoricalEnergyPattern{{Hour: 8, AverageEnergy: 0.9}, {Hour: 9, AverageEnergy: 0.9}, {Hour: 10, AverageEnergy: 0.9}}
		slots := engine.FindFutureSlots(nil, day(0), time.Hour, deep, patterns)
		if diff := cmp.Diff([]time.Time{at(0, 10, 0)}, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("target time of day is ignored", func(t *testing.T) {
		t.Parallel()
		patterns := []models.HistoricalEnergyPattern{{Hour: 9, AverageEnergy: 0.9}}
		slots := engine.FindFutureSlots(nil, at(1, 17, 30), time.Hour, deep, patterns)
		if diff := cmp.Diff([]time.Time{at(1, 9, 0)}, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEngine_GenerateFlexibleMultiDaySlots(t *testing.T) {
	t.Parallel()

	patterns := []models.HistoricalEnergyPattern{
		{Hour: 10, AverageEnergy: 0.9},
		{Hour: 14, AverageEnergy: 0.8},
	}
	schedule := []models.ScheduleItem{meeting(at(0, 10, 0), at(0, 11, 0))}
	deep := EnergyRequirementsForTag(models.TaskTagDeep)

	t.Run("one slot per day across the default window", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		sc := models.SchedulingContext{Schedule: schedule, HistoricalPatterns: patterns, SchedulingStrategy: models.StrategyFuture}

		slots := engine.GenerateFlexibleMultiDaySlots(sc, time.Hour, deep)

		want := []time.Time{at(0, 14, 0), at(1, 10, 0), at(2, 10, 0), at(3, 10, 0), at(4, 10, 0), at(5, 10, 0), at(6, 10, 0)}
		if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("window is respected", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		sc := models.SchedulingContext{Schedule: schedule, HistoricalPatterns: patterns, SchedulingStrategy: models.StrategyFuture, WindowDays: 3}

		slots := engine.GenerateFlexibleMultiDaySlots(sc, time.Hour, deep)

		want := []time.Time{at(0, 14, 0), at(1, 10, 0), at(2, 10, 0)}
		if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("oversized window is capped", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		sc := models.SchedulingContext{HistoricalPatterns: patterns, SchedulingStrategy: models.StrategyFuture, WindowDays: 30}

		if got := len(engine.GenerateFlexibleMultiDaySlots(sc, time.Hour, deep)); got != MaxWindowDays {
			t.Errorf("Expected %d slots, got %d", MaxWindowDays, got)
		}
	})

	t.Run("days without candidates are skipped", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		blocked := []models.ScheduleItem{
			meeting(at(1, 9, 0), at(1, 16, 0)),
			meeting(at(0, 10, 0), at(0, 11, 0)),
		}
		sc := models.SchedulingContext{Schedule: blocked, HistoricalPatterns: patterns, SchedulingStrategy: models.StrategyFuture, WindowDays: 3}

		slots := engine.GenerateFlexibleMultiDaySlots(sc, time.Hour, deep)

		want := []time.Time{at(0, 14, 0), at(2, 10, 0)}
		if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("highest energy picker", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine(WithDayPicker(HighestEnergy{}))
		sc := models.SchedulingContext{
			HistoricalPatterns: []models.HistoricalEnergyPattern{{Hour: 8, AverageEnergy: 0.75}, {Hour: 15, AverageEnergy: 0.95}},
			SchedulingStrategy: models.StrategyFuture,
			WindowDays:         2,
		}

		slots := engine.GenerateFlexibleMultiDaySlots(sc, time.Hour, deep)

		want := []time.Time{at(0, 15, 0), at(1, 15, 0)}
		if diff := cmp.Diff(want, startTimes(slots)); diff != "" {
			t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no patterns", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		slots := engine.GenerateFlexibleMultiDaySlots(models.SchedulingContext{SchedulingStrategy: models.StrategyFuture}, time.Hour, deep)
		if slots == nil || len(slots) != 0 {
			t.Errorf("Expected empty non-nil slots, got %v", slots)
		}
	})
}

func TestEngine_AvailableSlotsForContext(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	deep := EnergyRequirementsForTag(models.TaskTagDeep)
	forecast := []models.EnergySample{sample(at(0, 11, 0), 0.9, models.EnergyStageMorningPeak)}
	patterns := []models.HistoricalEnergyPattern{{Hour: 16, AverageEnergy: 0.9}}

	tests := []struct {
		name string
		sc   models.SchedulingContext
		want []time.Time
	}{
		{
			name: "today uses the forecast",
			sc: models.SchedulingContext{
				SchedulingStrategy:  models.StrategyToday,
				TargetDate:          timePtr(day(0)),
				TodayEnergyForecast: forecast,
				HistoricalPatterns:  patterns,
			},
			want: []time.Time{at(0, 11, 0)},
		},
		{
			name: "today without a forecast finds nothing",
			sc: models.SchedulingContext{
				SchedulingStrategy: models.StrategyToday,
				TargetDate:         timePtr(day(0)),
				HistoricalPatterns: patterns,
			},
			want: []time.Time{},
		},
		{
			name: "future with target scans one day",
			sc: models.SchedulingContext{
				SchedulingStrategy: models.StrategyFuture,
				TargetDate:         timePtr(day(4)),
				HistoricalPatterns: patterns,
			},
			want: []time.Time{at(4, 16, 0)},
		},
		{
			name: "future without target rolls across days",
			sc: models.SchedulingContext{
				SchedulingStrategy: models.StrategyFuture,
				HistoricalPatterns: patterns,
				WindowDays:         2,
			},
			want: []time.Time{at(0, 16, 0), at(1, 16, 0)},
		},
		{
			name: "no energy data at all",
			sc:   models.SchedulingContext{SchedulingStrategy: models.StrategyFuture},
			want: []time.Time{},
		},
		{
			name: "unknown strategy",
			sc:   models.SchedulingContext{SchedulingStrategy: models.SchedulingStrategy("someday"), HistoricalPatterns: patterns},
			want: []time.Time{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			slots := engine.AvailableSlotsForContext(tt.sc, time.Hour, deep)
			if slots == nil {
				t.Fatal("Expected non-nil slots")
			}
			if diff := cmp.Diff(tt.want, startTimes(slots)); diff != "" {
				t.Errorf("Slot start times mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_SlotInvariants(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	schedule := []models.ScheduleItem{
		meeting(at(0, 10, 0), at(0, 11, 0)),
		taskItem(at(1, 13, 0), at(1, 14, 30), models.TaskTagDeep),
		meeting(at(3, 7, 45), at(3, 9, 5)),
	}
	patterns := make([]models.HistoricalEnergyPattern, 0, 24)
	for h := 0; h < 24; h++ {
		patterns = append(patterns, models.HistoricalEnergyPattern{Hour: h, AverageEnergy: float64(h%10) / 10})
	}

	for _, tag := range []models.TaskTag{models.TaskTagDeep, models.TaskTagCreative, models.TaskTagAdmin, models.TaskTagPersonal, models.TaskTagOther} {
		req := EnergyRequirementsForTag(tag)
		for _, duration := range []time.Duration{30 * time.Minute, time.Hour, 150 * time.Minute} {
			for window := 1; window <= MaxWindowDays; window++ {
				sc := models.SchedulingContext{
					Schedule:           schedule,
					HistoricalPatterns: patterns,
					SchedulingStrategy: models.StrategyFuture,
					WindowDays:         window,
				}
				slots := engine.AvailableSlotsForContext(sc, duration, req)
				if len(slots) > window {
					t.Errorf("%s/%v/%d: got %d slots for a %d day window", tag, duration, window, len(slots), window)
				}
				seen := map[time.Time]bool{}
				for _, s := range slots {
					if s.StartTime.Before(testNow.Add(NowBuffer)) {
						t.Errorf("%s: slot %v starts before now plus buffer", tag, s.StartTime)
					}
					if !req.Contains(s.EnergyLevel) {
						t.Errorf("%s: slot energy %v outside %+v", tag, s.EnergyLevel, req)
					}
					if s.EndTime.Sub(s.StartTime) != duration {
						t.Errorf("%s: slot length %v, want %v", tag, s.EndTime.Sub(s.StartTime), duration)
					}
					for _, item := range schedule {
						if item.Overlaps(s.StartTime, s.EndTime, ItemBuffer) {
							t.Errorf("%s: slot %v conflicts with item at %v", tag, s.StartTime, item.StartTime)
						}
					}
					d := startOfDay(s.StartTime)
					if seen[d] {
						t.Errorf("%s: two slots on %v", tag, d)
					}
					seen[d] = true
				}
			}
		}
	}
}

func TestDayPickerByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    DayPicker
		wantErr bool
	}{
		{"", FirstQualifying{}, false},
		{DayPickerFirst, FirstQualifying{}, false},
		{DayPickerHighestEnergy, HighestEnergy{}, false},
		{"random", nil, true},
	}

	for _, tt := range tests {
		got, err := DayPickerByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DayPickerByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DayPickerByName(%q) = %T, want %T", tt.name, got, tt.want)
		}
	}
}

func TestHighestEnergy_TieKeepsEarliest(t *testing.T) {
	t.Parallel()

	candidates := []models.Slot{
		{StartTime: at(1, 8, 0), EnergyLevel: 0.9},
		{StartTime: at(1, 12, 0), EnergyLevel: 0.9},
	}
	got := HighestEnergy{}.Pick(candidates)
	if len(got) != 1 || !got[0].StartTime.Equal(at(1, 8, 0)) {
		t.Errorf("Expected earliest tied candidate, got %v", startTimes(got))
	}
}
