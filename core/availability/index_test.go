package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/model"
)

func newFixture(t *testing.T) (*Index, booking.Store) {
	t.Helper()
	reg, err := charger.NewMemoryRegistry([]model.Charger{
		{ID: "c1", Name: "Depot A", ChargingRateKW: 7, CostPerKWh: 12},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store := booking.NewMemoryStore()
	return NewIndex(reg, store), store
}

func reserve(t *testing.T, store booking.Store, start, end time.Time, status model.BookingStatus) {
	t.Helper()
	if _, err := store.Reserve(context.Background(), model.Booking{
		ChargerID: "c1", UserID: "u", Start: start, End: end, Status: status,
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
}

func TestFreeWindowsEmptyCalendar(t *testing.T) {
	ix, _ := newFixture(t)
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(6 * time.Hour)

	ws, err := ix.FreeWindows(context.Background(), "c1", from, to)
	if err != nil {
		t.Fatalf("free windows: %v", err)
	}
	if len(ws) != 1 || !ws[0].Start.Equal(from) || !ws[0].End.Equal(to) {
		t.Fatalf("expected single full window, got %+v", ws)
	}
}

func TestFreeWindowsAroundBooking(t *testing.T) {
	ix, store := newFixture(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Booked 09:00-12:00, query 08:00-14:00.
	reserve(t, store, day.Add(9*time.Hour), day.Add(12*time.Hour), model.BookingConfirmed)

	ws, err := ix.FreeWindows(context.Background(), "c1", day.Add(8*time.Hour), day.Add(14*time.Hour))
	if err != nil {
		t.Fatalf("free windows: %v", err)
	}
	if len(ws) != 2 {
		t.Fatalf("expected 2 windows, got %+v", ws)
	}
	if !ws[0].Start.Equal(day.Add(8*time.Hour)) || !ws[0].End.Equal(day.Add(9*time.Hour)) {
		t.Fatalf("bad leading window %+v", ws[0])
	}
	if !ws[1].Start.Equal(day.Add(12*time.Hour)) || !ws[1].End.Equal(day.Add(14*time.Hour)) {
		t.Fatalf("bad trailing window %+v", ws[1])
	}
}

func TestFreeWindowsClipsAndMerges(t *testing.T) {
	ix, store := newFixture(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Booking starting before the range and another ending after it.
	reserve(t, store, day.Add(6*time.Hour), day.Add(9*time.Hour), model.BookingConfirmed)
	reserve(t, store, day.Add(13*time.Hour), day.Add(16*time.Hour), model.BookingPending)

	ws, err := ix.FreeWindows(context.Background(), "c1", day.Add(8*time.Hour), day.Add(14*time.Hour))
	if err != nil {
		t.Fatalf("free windows: %v", err)
	}
	if len(ws) != 1 {
		t.Fatalf("expected 1 window, got %+v", ws)
	}
	if !ws[0].Start.Equal(day.Add(9*time.Hour)) || !ws[0].End.Equal(day.Add(13*time.Hour)) {
		t.Fatalf("bad window %+v", ws[0])
	}
}

func TestFreeWindowsIgnoresCancelled(t *testing.T) {
	ix, store := newFixture(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reserve(t, store, day.Add(9*time.Hour), day.Add(12*time.Hour), model.BookingCancelled)

	ws, err := ix.FreeWindows(context.Background(), "c1", day.Add(8*time.Hour), day.Add(14*time.Hour))
	if err != nil {
		t.Fatalf("free windows: %v", err)
	}
	if len(ws) != 1 {
		t.Fatalf("cancelled booking must not block, got %+v", ws)
	}
}

func TestFreeWindowsUnknownCharger(t *testing.T) {
	ix, _ := newFixture(t)
	now := time.Now()
	_, err := ix.FreeWindows(context.Background(), "nope", now, now.Add(time.Hour))
	if !errors.Is(err, charger.ErrNotFound) {
		t.Fatalf("expected charger.ErrNotFound, got %v", err)
	}
}
