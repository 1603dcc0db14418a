// Package booking holds the reservation store and the conflict guard
// semantics: a reservation is only committed when no blocking booking
// overlaps it, and concurrent attempts on the same charger are serialized.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartev/scheduler/core/model"
)

// ErrNotFound is returned when a booking id is unknown.
var ErrNotFound = errors.New("booking not found")

// ConflictError reports a reservation attempt overlapping an existing
// blocking booking. It carries the blocking interval so callers can explain
// why the slot is taken.
type ConflictError struct {
	BookingID string
	Blocking  model.Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot already occupied from %s to %s",
		e.Blocking.Start.Format(time.RFC3339), e.Blocking.End.Format(time.RFC3339))
}

// Store persists bookings. Reserve must be atomic with respect to concurrent
// calls for the same charger: of two overlapping attempts exactly one
// succeeds, the other receives a *ConflictError.
type Store interface {
	// Reserve commits the booking if its interval is free on the charger.
	// A zero ID is assigned by the store. Returns the stored booking.
	Reserve(ctx context.Context, b model.Booking) (model.Booking, error)

	// Get returns the booking with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Booking, error)

	// Cancel marks the booking Cancelled, freeing its interval immediately.
	Cancel(ctx context.Context, id string) error

	// ActiveByCharger returns blocking bookings on the charger overlapping
	// [from, to), ordered by start time.
	ActiveByCharger(ctx context.Context, chargerID string, from, to time.Time) ([]model.Booking, error)

	// UpcomingByUser returns the user's bookings ending after the given
	// time, ordered by start time, capped at limit.
	UpcomingByUser(ctx context.Context, userID string, after time.Time, limit int) ([]model.Booking, error)

	// ClearHistory deletes the user's Completed and Cancelled bookings and
	// returns how many were removed.
	ClearHistory(ctx context.Context, userID string) (int, error)

	Close() error
}
