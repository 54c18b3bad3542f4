package scheduling

import (
	"fmt"

	"github.com/benvon/smart-schedule/internal/models"
)

// DayPicker chooses which of a single day's qualifying candidates to keep.
// Candidates arrive chronologically and are never empty.
type DayPicker interface {
	Pick(candidates []models.Slot) []models.Slot
}

// FirstQualifying keeps the earliest qualifying hour of the day
type FirstQualifying struct{}

// Pick returns the first candidate
func (FirstQualifying) Pick(candidates []models.Slot) []models.Slot {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[:1]
}

// HighestEnergy keeps the candidate with the highest energy, earliest on ties
type HighestEnergy struct{}

// Pick returns the best-energy candidate
func (HighestEnergy) Pick(candidates []models.Slot) []models.Slot {
	if len(candidates) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].EnergyLevel > candidates[best].EnergyLevel {
			best = i
		}
	}
	return candidates[best : best+1]
}

const (
	// DayPickerFirst names the FirstQualifying policy
	DayPickerFirst = "first"
	// DayPickerHighestEnergy names the HighestEnergy policy
	DayPickerHighestEnergy = "highest_energy"
)

// DayPickerByName resolves a configured policy name
func DayPickerByName(name string) (DayPicker, error) {
	switch name {
	case "", DayPickerFirst:
		return FirstQualifying{}, nil
	case DayPickerHighestEnergy:
		return HighestEnergy{}, nil
	default:
		return nil, fmt.Errorf("unknown day picker: %s (must be '%s' or '%s')", name, DayPickerFirst, DayPickerHighestEnergy)
	}
}
