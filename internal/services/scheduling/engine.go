// Package scheduling decides when a flexible task should occupy calendar time.
//
// The engine is a pure function library: it reads only its explicit inputs and
// the injected clock, never performs I/O and never mutates its arguments, so an
// Engine may be shared by any number of goroutines.
package scheduling

import (
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	"go.uber.org/zap"
)

const (
	// ItemBuffer is the idle gap kept on both sides of every existing schedule item
	ItemBuffer = 10 * time.Minute
	// NowBuffer is the minimum lead time between the current instant and a slot start
	NowBuffer = 15 * time.Minute
	// MaxWindowDays bounds the multi-day search window
	MaxWindowDays = 7

	// DefaultPriorityDelta is the priority change that triggers a reschedule
	DefaultPriorityDelta = 2
	// DefaultDurationDelta is the estimate change that triggers a reschedule
	DefaultDurationDelta = 30 * time.Minute
)

// Thresholds controls which task edits are significant enough to re-place a task
type Thresholds struct {
	PriorityDelta int
	DurationDelta time.Duration
}

// DefaultThresholds returns the standard reschedule thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriorityDelta: DefaultPriorityDelta,
		DurationDelta: DefaultDurationDelta,
	}
}

// Engine holds the injected collaborators of the decision core
type Engine struct {
	clock      clock.Clock
	thresholds Thresholds
	picker     DayPicker
	logger     *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithThresholds overrides the reschedule thresholds
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithDayPicker sets the per-day candidate policy used by multi-day generation
func WithDayPicker(p DayPicker) Option {
	return func(e *Engine) {
		if p != nil {
			e.picker = p
		}
	}
}

// WithLogger sets a logger for debug output
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine using the system clock unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:      clock.Real{},
		thresholds: DefaultThresholds(),
		picker:     FirstQualifying{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's notion of the current instant
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Thresholds returns the reschedule thresholds in effect
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return startOfDay(a).Equal(startOfDay(b))
}
