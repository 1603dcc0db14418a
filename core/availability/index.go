// Package availability answers overlap queries against confirmed bookings.
// It is a pure read path: the index never mutates bookings and each query
// reads a snapshot, so results may lag concurrent reservations slightly.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/model"
)

// Index computes free windows on a charger as the complement of its blocking
// bookings within a queried range.
type Index struct {
	chargers charger.Registry
	bookings booking.Store
}

// NewIndex returns an Index over the given registry and booking store.
func NewIndex(chargers charger.Registry, bookings booking.Store) *Index {
	return &Index{chargers: chargers, bookings: bookings}
}

// FreeWindows returns the ordered gaps between blocking bookings on the
// charger, clipped to [from, to). It returns charger.ErrNotFound for an
// unknown charger id.
func (ix *Index) FreeWindows(ctx context.Context, chargerID string, from, to time.Time) ([]model.Window, error) {
	if !to.After(from) {
		return nil, nil
	}
	if _, err := ix.chargers.Get(ctx, chargerID); err != nil {
		return nil, fmt.Errorf("free windows for %s: %w", chargerID, err)
	}
	booked, err := ix.bookings.ActiveByCharger(ctx, chargerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("free windows for %s: %w", chargerID, err)
	}

	var windows []model.Window
	cursor := from
	for _, b := range booked {
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(to) {
				end = to
			}
			windows = append(windows, model.Window{Start: cursor, End: end})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(to) {
			return windows, nil
		}
	}
	if cursor.Before(to) {
		windows = append(windows, model.Window{Start: cursor, End: to})
	}
	return windows, nil
}
