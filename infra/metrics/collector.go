package metrics

import (
	"context"
	"time"

	"github.com/smartev/scheduler/core/events"
	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/internal/eventbus"
)

// StartEventCollector subscribes to the bus and records metrics for booking
// and optimization events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.Bus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.OptimizationEvent:
		_ = sink.RecordOptimization(coremetrics.OptimizationRecord{
			UserID:     e.UserID,
			Priority:   e.Priority,
			ChargerID:  e.ChargerID,
			Slots:      e.Slots,
			Infeasible: e.Infeasible,
			Degraded:   e.Degraded,
			Elapsed:    e.Elapsed,
			Time:       eventTime(e.Time),
		})
	case events.BookingReservedEvent:
		if r, ok := sink.(coremetrics.BookingRecorder); ok {
			_ = r.RecordBooking(coremetrics.BookingRecord{
				ChargerID: e.Booking.ChargerID,
				Outcome:   "reserved",
				EnergyKWh: e.Booking.EnergyKWh,
				TotalCost: e.Booking.TotalCost,
				Time:      eventTime(e.Time),
			})
		}
	case events.BookingCancelledEvent:
		if r, ok := sink.(coremetrics.BookingRecorder); ok {
			_ = r.RecordBooking(coremetrics.BookingRecord{
				ChargerID: e.ChargerID,
				Outcome:   "cancelled",
				Time:      eventTime(e.Time),
			})
		}
	case events.BookingConflictEvent:
		if r, ok := sink.(coremetrics.BookingRecorder); ok {
			_ = r.RecordBooking(coremetrics.BookingRecord{
				ChargerID: e.ChargerID,
				Outcome:   "conflict",
				Time:      eventTime(e.Time),
			})
		}
	case events.ForecastFetchEvent:
		if r, ok := sink.(coremetrics.ForecastRecorder); ok {
			_ = r.RecordForecastFetch(coremetrics.ForecastFetch{
				Location: e.Location,
				Points:   e.Points,
				Failed:   e.Failed,
				Latency:  e.Latency,
				Time:     eventTime(e.Time),
			})
		}
	}
}

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
