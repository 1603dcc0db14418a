package store

import (
	"context"
	"errors"
	"time"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/events"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/internal/eventbus"
)

// EventedStore wraps a booking.Store and publishes lifecycle events on the
// bus. Reads pass through untouched.
type EventedStore struct {
	booking.Store
	bus eventbus.Bus
}

// NewEventedStore wraps inner. A nil bus returns inner unchanged.
func NewEventedStore(inner booking.Store, bus eventbus.Bus) booking.Store {
	if bus == nil {
		return inner
	}
	return &EventedStore{Store: inner, bus: bus}
}

// Reserve publishes BookingReservedEvent on success and
// BookingConflictEvent when the interval is held.
func (s *EventedStore) Reserve(ctx context.Context, b model.Booking) (model.Booking, error) {
	stored, err := s.Store.Reserve(ctx, b)
	if err != nil {
		var conflict *booking.ConflictError
		if errors.As(err, &conflict) {
			s.bus.Publish(events.BookingConflictEvent{
				ChargerID: b.ChargerID,
				Blocking:  conflict.Blocking,
				Time:      time.Now(),
			})
		}
		return model.Booking{}, err
	}
	s.bus.Publish(events.BookingReservedEvent{Booking: stored, Time: time.Now()})
	return stored, nil
}

// Cancel publishes BookingCancelledEvent on success.
func (s *EventedStore) Cancel(ctx context.Context, id string) error {
	b, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Cancel(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.BookingCancelledEvent{
		BookingID: id,
		ChargerID: b.ChargerID,
		Time:      time.Now(),
	})
	return nil
}
