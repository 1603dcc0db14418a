package model

import (
	"fmt"
	"time"
)

// Priority is the objective the scorer optimizes for.
type Priority int

const (
	PrioritySavings Priority = iota
	PrioritySpeed
	PriorityGreen
)

// String returns the textual representation used on the wire.
func (p Priority) String() string {
	switch p {
	case PrioritySavings:
		return "Savings"
	case PrioritySpeed:
		return "Speed"
	case PriorityGreen:
		return "Green"
	default:
		return "Unknown"
	}
}

// ParsePriority converts the wire representation back to a priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "Savings", "":
		return PrioritySavings, nil
	case "Speed":
		return PrioritySpeed, nil
	case "Green":
		return PriorityGreen, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// OptimizationRequest asks for ranked charging slots for one user.
type OptimizationRequest struct {
	UserID    string
	EnergyKWh float64   // energy needed in kWh, must be positive
	ReadyBy   time.Time // deadline: charging must finish by this time
	Priority  Priority
	ChargerID string    // optional, scopes the search to one charger
	Near      *Location // optional, scopes the search around a point
	Country   string    // currency display only, not used by the core
}

// Slot is a candidate charging window with a cost/efficiency score. Slots are
// ephemeral: generated per request and never persisted.
type Slot struct {
	ChargerID     string    `json:"charger_id"`
	Start         time.Time `json:"start_time"`
	End           time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	EnergyKWh     float64   `json:"energy_kwh"`
	TotalCost     float64   `json:"total_cost"` // base currency, pre-conversion
	Efficiency    float64   `json:"efficiency_score"`
	Source        string    `json:"source"`
	Color         string    `json:"color"`
	Rank          int       `json:"score"` // ordinal, 1 = best
}
