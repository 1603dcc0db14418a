package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/core/model"
)

// PromSink records scheduler events as Prometheus metrics.
type PromSink struct {
	optimizations *prometheus.CounterVec
	optimizeTime  *prometheus.HistogramVec
	bookings      *prometheus.CounterVec
	forecastTime  prometheus.Histogram
	chargers      *prometheus.GaugeVec
}

// NewPromSink registers the scheduler metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one. Re-registration reuses the existing
// collectors.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	optimizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimize_requests_total",
		Help: "Total number of slot optimization requests",
	}, []string{"priority", "infeasible", "degraded"})
	optimizeTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimize_duration_seconds",
		Help:    "Wall time of one optimization pass",
		Buckets: prometheus.DefBuckets,
	}, []string{"priority"})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_total",
		Help: "Reservation outcomes by charger",
	}, []string{"charger_id", "outcome"})
	forecastTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forecast_fetch_duration_seconds",
		Help:    "Latency of upstream weather fetches",
		Buckets: prometheus.DefBuckets,
	})
	chargers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargers_total",
		Help: "Registered chargers by status",
	}, []string{"status"})

	if err := reg.Register(optimizations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			optimizations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(optimizeTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			optimizeTime = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bookings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bookings = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(forecastTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			forecastTime = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(chargers); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			chargers = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		optimizations: optimizations,
		optimizeTime:  optimizeTime,
		bookings:      bookings,
		forecastTime:  forecastTime,
		chargers:      chargers,
	}, nil
}

// RecordOptimization implements coremetrics.Sink.
func (s *PromSink) RecordOptimization(rec coremetrics.OptimizationRecord) error {
	s.optimizations.WithLabelValues(
		rec.Priority.String(),
		strconv.FormatBool(rec.Infeasible),
		strconv.FormatBool(rec.Degraded),
	).Inc()
	s.optimizeTime.WithLabelValues(rec.Priority.String()).Observe(rec.Elapsed.Seconds())
	return nil
}

// RecordBooking implements coremetrics.BookingRecorder.
func (s *PromSink) RecordBooking(rec coremetrics.BookingRecord) error {
	s.bookings.WithLabelValues(rec.ChargerID, rec.Outcome).Inc()
	return nil
}

// RecordForecastFetch implements coremetrics.ForecastRecorder.
func (s *PromSink) RecordForecastFetch(rec coremetrics.ForecastFetch) error {
	if !rec.Failed {
		s.forecastTime.Observe(rec.Latency.Seconds())
	}
	return nil
}

// RecordChargerCount implements coremetrics.ChargerGaugeRecorder.
func (s *PromSink) RecordChargerCount(status model.ChargerStatus, count int) error {
	s.chargers.WithLabelValues(status.String()).Set(float64(count))
	return nil
}
