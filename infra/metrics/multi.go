package metrics

import (
	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/core/model"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink over the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOptimization forwards to every sink, returning the first error.
func (m *MultiSink) RecordOptimization(rec coremetrics.OptimizationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordOptimization(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordBooking forwards to sinks that record bookings.
func (m *MultiSink) RecordBooking(rec coremetrics.BookingRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.BookingRecorder); ok {
			if err := r.RecordBooking(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordForecastFetch forwards to sinks that record forecast fetches.
func (m *MultiSink) RecordForecastFetch(rec coremetrics.ForecastFetch) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.ForecastRecorder); ok {
			if err := r.RecordForecastFetch(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordChargerCount forwards to sinks that expose fleet gauges.
func (m *MultiSink) RecordChargerCount(status model.ChargerStatus, count int) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.ChargerGaugeRecorder); ok {
			if err := r.RecordChargerCount(status, count); err != nil {
				return err
			}
		}
	}
	return nil
}
