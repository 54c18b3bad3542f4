package models

import (
	"time"

	"github.com/google/uuid"
)

// SchedulingStrategy is the slot search mode
type SchedulingStrategy string

const (
	StrategyToday  SchedulingStrategy = "today"
	StrategyFuture SchedulingStrategy = "future"
)

// SchedulingContext aggregates everything a slot search needs
type SchedulingContext struct {
	Schedule            []ScheduleItem            `json:"schedule" validate:"dive"`
	EnergyHistory       []EnergySample            `json:"energy_history,omitempty" validate:"dive"`
	TodayEnergyForecast []EnergySample            `json:"today_energy_forecast,omitempty" validate:"dive"`
	HistoricalPatterns  []HistoricalEnergyPattern `json:"historical_patterns,omitempty" validate:"dive"`
	SchedulingStrategy  SchedulingStrategy        `json:"scheduling_strategy,omitempty"`
	TargetDate          *time.Time                `json:"target_date,omitempty"`
	WindowDays          int                       `json:"window_days,omitempty" validate:"gte=0,lte=7"`
}

// ChunkInfo summarises the chunks of a task scheduled together
type ChunkInfo struct {
	TotalChunks            int         `json:"total_chunks"`
	AllChunkIDs            []uuid.UUID `json:"all_chunk_ids"`
	ChunkTitles            []string    `json:"chunk_titles"`
	ChunkDurations         []int       `json:"chunk_durations"`
	IsMultiChunkScheduling bool        `json:"is_multi_chunk_scheduling"`
}

// MultiChunkContext is a scheduling context with chunk metadata attached
type MultiChunkContext struct {
	SchedulingContext
	ChunkInfo ChunkInfo `json:"chunk_info"`
}

// Slot is a proposed, already validated candidate window
type Slot struct {
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	EnergyLevel  float64     `json:"energy_level"`
	EnergyStage  EnergyStage `json:"energy_stage"`
	HasConflict  bool        `json:"has_conflict"`
	IsToday      bool        `json:"is_today"`
	IsHistorical bool        `json:"is_historical"`
}
