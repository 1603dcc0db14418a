package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartev/scheduler/core/model"
)

// MemoryStore keeps bookings in memory for testing or single-node usage.
// The mutex serializes all writes, which trivially satisfies the per-charger
// atomicity requirement of Reserve.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]model.Booking
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Booking{}}
}

// Reserve implements Store.
func (s *MemoryStore) Reserve(ctx context.Context, b model.Booking) (model.Booking, error) {
	if err := b.Validate(); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.data {
		if ex.ChargerID != b.ChargerID || !ex.Status.Blocking() {
			continue
		}
		if ex.Overlaps(b.Start, b.End) {
			return model.Booking{}, &ConflictError{
				BookingID: ex.ID,
				Blocking:  model.Window{Start: ex.Start, End: ex.End},
			}
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.data[b.ID] = b
	return b, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

// Cancel implements Store.
func (s *MemoryStore) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = model.BookingCancelled
	s.data[id] = b
	return nil
}

// ActiveByCharger implements Store.
func (s *MemoryStore) ActiveByCharger(ctx context.Context, chargerID string, from, to time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Booking
	for _, b := range s.data {
		if b.ChargerID == chargerID && b.Status.Blocking() && b.Overlaps(from, to) {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Start.Before(res[j].Start) })
	return res, nil
}

// UpcomingByUser implements Store.
func (s *MemoryStore) UpcomingByUser(ctx context.Context, userID string, after time.Time, limit int) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Booking
	for _, b := range s.data {
		if b.UserID == userID && b.End.After(after) {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Start.Before(res[j].Start) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ClearHistory implements Store.
func (s *MemoryStore) ClearHistory(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, b := range s.data {
		if b.UserID != userID {
			continue
		}
		if b.Status == model.BookingCompleted || b.Status == model.BookingCancelled {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
