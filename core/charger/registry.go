// Package charger exposes the read-mostly registry of charging stations.
// Chargers are seeded by configuration or an external admin flow; only their
// status changes at runtime, driven by the station status feed.
package charger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/smartev/scheduler/core/model"
)

// ErrNotFound is returned when a charger id is unknown.
var ErrNotFound = errors.New("charger not found")

// Registry provides access to known chargers.
type Registry interface {
	// Get returns the charger with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Charger, error)

	// List returns all chargers ordered by id.
	List(ctx context.Context) ([]model.Charger, error)

	// SetStatus updates the operational status of a charger.
	SetStatus(ctx context.Context, id string, status model.ChargerStatus) error
}

// MemoryRegistry is an in-memory Registry.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]model.Charger
}

// NewMemoryRegistry builds a registry from the given chargers. Invalid
// chargers are rejected.
func NewMemoryRegistry(chargers []model.Charger) (*MemoryRegistry, error) {
	r := &MemoryRegistry{data: make(map[string]model.Charger, len(chargers))}
	for _, c := range chargers {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		r.data[c.ID] = c
	}
	return r, nil
}

// Get implements Registry.
func (r *MemoryRegistry) Get(ctx context.Context, id string) (model.Charger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return model.Charger{}, ErrNotFound
	}
	return c, nil
}

// List implements Registry.
func (r *MemoryRegistry) List(ctx context.Context) ([]model.Charger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]model.Charger, 0, len(r.data))
	for _, c := range r.data {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// SetStatus implements Registry.
func (r *MemoryRegistry) SetStatus(ctx context.Context, id string, status model.ChargerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	r.data[id] = c
	return nil
}
