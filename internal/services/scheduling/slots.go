package scheduling

import (
	"sort"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"go.uber.org/zap"
)

// FindTodaySlots scans a live forecast for conflict-free windows on the current day.
// Candidates keep the forecast order.
func (e *Engine) FindTodaySlots(schedule []models.ScheduleItem, forecast []models.EnergySample, duration time.Duration, req models.EnergyRequirement) []models.Slot {
	earliest := e.clock.Now().Add(NowBuffer)
	slots := make([]models.Slot, 0, len(forecast))

	for _, sample := range forecast {
		if !req.Contains(sample.EnergyLevel) {
			continue
		}
		if sample.EnergyStage == models.EnergyStageSleepPhase {
			continue
		}
		start := sample.Time
		end := start.Add(duration)
		if start.Before(earliest) {
			continue
		}
		if conflicts(schedule, start, end) {
			continue
		}
		slots = append(slots, models.Slot{
			StartTime:   start,
			EndTime:     end,
			EnergyLevel: sample.EnergyLevel,
			EnergyStage: sample.EnergyStage,
			IsToday:     true,
		})
	}

	return slots
}

// FindFutureSlots scans hour-of-day energy averages for windows on targetDate.
// Existing occupancy always wins: any overlapping item drops the candidate.
func (e *Engine) FindFutureSlots(schedule []models.ScheduleItem, targetDate time.Time, duration time.Duration, req models.EnergyRequirement, patterns []models.HistoricalEnergyPattern) []models.Slot {
	if len(patterns) == 0 {
		return []models.Slot{}
	}
	return e.dayCandidates(schedule, startOfDay(targetDate), duration, req, sortedPatterns(patterns))
}

// GenerateFlexibleMultiDaySlots rolls the single-day scan across the context's
// window, keeping the candidates the day picker selects for each day.
func (e *Engine) GenerateFlexibleMultiDaySlots(sc models.SchedulingContext, duration time.Duration, req models.EnergyRequirement) []models.Slot {
	if len(sc.HistoricalPatterns) == 0 {
		return []models.Slot{}
	}

	window := sc.WindowDays
	if window <= 0 || window > MaxWindowDays {
		window = MaxWindowDays
	}

	patterns := sortedPatterns(sc.HistoricalPatterns)
	today := startOfDay(e.clock.Now())
	slots := make([]models.Slot, 0, window)

	for offset := 0; offset < window; offset++ {
		day := today.AddDate(0, 0, offset)
		candidates := e.dayCandidates(sc.Schedule, day, duration, req, patterns)
		if len(candidates) == 0 {
			continue
		}
		for _, slot := range e.picker.Pick(candidates) {
			if len(slots) == MaxWindowDays {
				return slots
			}
			slots = append(slots, slot)
		}
	}

	return slots
}

// AvailableSlotsForContext is the single entry point for slot search. It never
// fails; an empty result means no automatic placement is possible now. The first
// slot is the preferred option.
func (e *Engine) AvailableSlotsForContext(sc models.SchedulingContext, duration time.Duration, req models.EnergyRequirement) []models.Slot {
	var slots []models.Slot
	mode := "none"

	switch {
	case sc.SchedulingStrategy == models.StrategyToday && len(sc.TodayEnergyForecast) > 0:
		mode = "today"
		slots = e.FindTodaySlots(sc.Schedule, sc.TodayEnergyForecast, duration, req)
	case sc.SchedulingStrategy == models.StrategyFuture && sc.TargetDate != nil:
		mode = "future_day"
		slots = e.FindFutureSlots(sc.Schedule, *sc.TargetDate, duration, req, sc.HistoricalPatterns)
	case sc.SchedulingStrategy == models.StrategyFuture:
		mode = "multi_day"
		slots = e.GenerateFlexibleMultiDaySlots(sc, duration, req)
	default:
		slots = []models.Slot{}
	}

	e.logger.Debug("slot_search_completed",
		zap.String("strategy", string(sc.SchedulingStrategy)),
		zap.String("mode", mode),
		zap.Duration("duration", duration),
		zap.Float64("energy_min", req.Min),
		zap.Float64("energy_max", req.Max),
		zap.Int("slot_count", len(slots)),
	)

	return slots
}

// dayCandidates expects patterns already sorted by hour
func (e *Engine) dayCandidates(schedule []models.ScheduleItem, day time.Time, duration time.Duration, req models.EnergyRequirement, patterns []models.HistoricalEnergyPattern) []models.Slot {
	earliest := e.clock.Now().Add(NowBuffer)
	slots := make([]models.Slot, 0, len(patterns))

	for _, p := range patterns {
		if p.Hour < 0 || p.Hour > 23 {
			continue
		}
		if !req.Contains(p.AverageEnergy) {
			continue
		}
		start := day.Add(time.Duration(p.Hour) * time.Hour)
		end := start.Add(duration)
		if start.Before(earliest) {
			continue
		}
		if conflicts(schedule, start, end) {
			continue
		}
		slots = append(slots, models.Slot{
			StartTime:    start,
			EndTime:      end,
			EnergyLevel:  p.AverageEnergy,
			EnergyStage:  models.StageForHour(p.Hour),
			IsToday:      false,
			IsHistorical: true,
		})
	}

	return slots
}

func conflicts(schedule []models.ScheduleItem, start, end time.Time) bool {
	for _, item := range schedule {
		if item.Overlaps(start, end, ItemBuffer) {
			return true
		}
	}
	return false
}

func sortedPatterns(patterns []models.HistoricalEnergyPattern) []models.HistoricalEnergyPattern {
	out := make([]models.HistoricalEnergyPattern, len(patterns))
	copy(out, patterns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hour < out[j].Hour
	})
	return out
}
