// Package clock provides an injectable source of the current time.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant
type Clock interface {
	Now() time.Time
}

// Real reads the system clock
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Frozen is a settable clock for tests that need to move time between calls
type Frozen struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFrozen creates a clock frozen at now
func NewFrozen(now time.Time) *Frozen {
	return &Frozen{now: now}
}

// Now returns the current frozen instant
func (f *Frozen) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to t
func (f *Frozen) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d
func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
