// Package metrics defines the recording interfaces for operational events.
// Concrete sinks (Prometheus, InfluxDB) live under infra/metrics; the core
// only depends on these interfaces.
package metrics

import (
	"time"

	"github.com/smartev/scheduler/core/model"
)

// OptimizationRecord captures one optimize request end to end.
type OptimizationRecord struct {
	UserID     string
	Priority   model.Priority
	ChargerID  string
	Slots      int
	Infeasible bool
	Degraded   bool
	Elapsed    time.Duration
	Time       time.Time
}

// Sink records optimization outcomes. Additional recorders below are
// optional and discovered by type assertion.
type Sink interface {
	RecordOptimization(rec OptimizationRecord) error
}

// BookingRecord captures a reservation outcome.
type BookingRecord struct {
	ChargerID string
	Outcome   string // reserved, cancelled, conflict
	EnergyKWh float64
	TotalCost float64
	Time      time.Time
}

// BookingRecorder records reservation outcomes.
type BookingRecorder interface {
	RecordBooking(rec BookingRecord) error
}

// ForecastFetch captures one upstream weather fetch.
type ForecastFetch struct {
	Location string
	Points   int
	Failed   bool
	Latency  time.Duration
	Time     time.Time
}

// ForecastRecorder records upstream forecast fetches.
type ForecastRecorder interface {
	RecordForecastFetch(rec ForecastFetch) error
}

// ChargerGaugeRecorder records the current charger fleet size by status.
type ChargerGaugeRecorder interface {
	RecordChargerCount(status model.ChargerStatus, count int) error
}

// NopSink implements every recorder with no-ops.
type NopSink struct{}

func (NopSink) RecordOptimization(OptimizationRecord) error       { return nil }
func (NopSink) RecordBooking(BookingRecord) error                 { return nil }
func (NopSink) RecordForecastFetch(ForecastFetch) error           { return nil }
func (NopSink) RecordChargerCount(model.ChargerStatus, int) error { return nil }
