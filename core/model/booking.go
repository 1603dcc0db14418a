package model

import (
	"fmt"
	"time"
)

// BookingStatus describes the lifecycle state of a booking.
type BookingStatus int

const (
	BookingPending BookingStatus = iota
	BookingConfirmed
	BookingCompleted
	BookingCancelled
)

// String returns the textual representation used on the wire.
func (s BookingStatus) String() string {
	switch s {
	case BookingPending:
		return "Pending"
	case BookingConfirmed:
		return "Confirmed"
	case BookingCompleted:
		return "Completed"
	case BookingCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseBookingStatus converts the wire representation back to a status.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch s {
	case "Pending":
		return BookingPending, nil
	case "Confirmed":
		return BookingConfirmed, nil
	case "Completed":
		return BookingCompleted, nil
	case "Cancelled":
		return BookingCancelled, nil
	}
	return 0, fmt.Errorf("unknown booking status %q", s)
}

// Blocking reports whether a booking in this status occupies its interval.
// Only Pending and Confirmed bookings block a charger.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a committed reservation of a charger for a half-open interval
// [Start, End). No two blocking bookings on the same charger may overlap.
type Booking struct {
	ID        string        `json:"id"`
	ChargerID string        `json:"charger_id"`
	UserID    string        `json:"user_id"`
	Start     time.Time     `json:"start_time"`
	End       time.Time     `json:"end_time"`
	EnergyKWh float64       `json:"energy_kwh"`
	TotalCost float64       `json:"total_cost"`
	Status    BookingStatus `json:"-"`
}

// Validate checks the interval is well formed.
func (b Booking) Validate() error {
	if b.ChargerID == "" {
		return fmt.Errorf("booking charger id must not be empty")
	}
	if !b.End.After(b.Start) {
		return fmt.Errorf("booking end must be after start")
	}
	return nil
}

// Overlaps reports whether the booking interval intersects [start, end).
// Touching intervals do not overlap: [a,b) and [b,c) are disjoint.
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Hours returns the window length in fractional hours.
func (w Window) Hours() float64 { return w.Duration().Hours() }
