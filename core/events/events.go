// Package events defines the lifecycle events published on the internal bus.
package events

import (
	"time"

	"github.com/smartev/scheduler/core/model"
)

// OptimizationEvent is published after every optimize request, successful or
// not.
type OptimizationEvent struct {
	UserID     string
	Priority   model.Priority
	ChargerID  string
	Slots      int
	Infeasible bool
	Degraded   bool
	Elapsed    time.Duration
	Time       time.Time
}

// ForecastFetchEvent is published after every upstream weather fetch.
// Cache hits do not produce one.
type ForecastFetchEvent struct {
	Location string
	Points   int
	Failed   bool
	Latency  time.Duration
	Time     time.Time
}

// BookingReservedEvent is published when a reservation is accepted.
type BookingReservedEvent struct {
	Booking model.Booking
	Time    time.Time
}

// BookingCancelledEvent is published when a reservation is cancelled.
type BookingCancelledEvent struct {
	BookingID string
	ChargerID string
	Time      time.Time
}

// BookingConflictEvent is published when a reservation is rejected because
// the interval is already held.
type BookingConflictEvent struct {
	ChargerID string
	Blocking  model.Window
	Time      time.Time
}
