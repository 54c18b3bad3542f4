package models

import "time"

// EnergyStage is a circadian label attached to an energy sample
type EnergyStage string

const (
	EnergyStageMorningPeak      EnergyStage = "morning_peak"
	EnergyStageMiddayDip        EnergyStage = "midday_dip"
	EnergyStageAfternoonRebound EnergyStage = "afternoon_rebound"
	EnergyStageWindDown         EnergyStage = "wind_down"
	EnergyStageSleepPhase       EnergyStage = "sleep_phase"
)

// IsKnown reports whether the stage is a recognised circadian stage
func (s EnergyStage) IsKnown() bool {
	switch s {
	case EnergyStageMorningPeak, EnergyStageMiddayDip, EnergyStageAfternoonRebound,
		EnergyStageWindDown, EnergyStageSleepPhase:
		return true
	default:
		return false
	}
}

// StageForHour maps an hour of day to the stage a typical day is in at that hour
func StageForHour(hour int) EnergyStage {
	switch {
	case hour >= 6 && hour <= 11:
		return EnergyStageMorningPeak
	case hour >= 12 && hour <= 14:
		return EnergyStageMiddayDip
	case hour >= 15 && hour <= 17:
		return EnergyStageAfternoonRebound
	case hour >= 18 && hour <= 21:
		return EnergyStageWindDown
	default:
		return EnergyStageSleepPhase
	}
}

// EnergySample is an hour-aligned measured or forecast energy point
type EnergySample struct {
	Time        time.Time   `json:"time" validate:"required"`
	EnergyLevel float64     `json:"energy_level" validate:"gte=0,lte=1"`
	EnergyStage EnergyStage `json:"energy_stage" validate:"required,energy_stage"`
}

// HistoricalEnergyPattern is an hour-of-day aggregate used for future-day planning
type HistoricalEnergyPattern struct {
	Hour          int     `json:"hour" validate:"gte=0,lte=23"`
	AverageEnergy float64 `json:"average_energy" validate:"gte=0,lte=1"`
}

// EnergyRequirement is the inclusive energy range a task needs
type EnergyRequirement struct {
	Min float64 `json:"min" validate:"gte=0,lte=1"`
	Max float64 `json:"max" validate:"gte=0,lte=1,gtefield=Min"`
}

// Contains reports whether level lies within the requirement
func (r EnergyRequirement) Contains(level float64) bool {
	return level >= r.Min && level <= r.Max
}
