package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/smartev/scheduler/core/availability"
	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/logger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/optimizer"
	"github.com/smartev/scheduler/core/signal"
)

// RunScenario wires an in-memory stack from the scenario and checks the
// optimizer output against the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	seeds := make([]model.Charger, 0, len(sc.Chargers))
	for _, def := range sc.Chargers {
		c, err := def.ToModel()
		if err != nil {
			t.Fatalf("scenario %s: charger %s: %v", sc.Name, def.ID, err)
		}
		seeds = append(seeds, c)
	}
	registry, err := charger.NewMemoryRegistry(seeds)
	if err != nil {
		t.Fatalf("scenario %s: registry: %v", sc.Name, err)
	}

	store := booking.NewMemoryStore()
	ctx := context.Background()
	for i, def := range sc.Bookings {
		_, err := store.Reserve(ctx, model.Booking{
			ChargerID: def.ChargerID,
			UserID:    "seed",
			Start:     at(def.StartHour),
			End:       at(def.EndHour),
			Status:    model.BookingConfirmed,
		})
		if err != nil {
			t.Fatalf("scenario %s: seed booking %d: %v", sc.Name, i, err)
		}
	}

	provider := signal.Static{ByHour: sc.Efficiency}
	now := at(sc.NowHour)
	opt := optimizer.New(registry, availability.NewIndex(registry, store), provider,
		logger.NopLogger{}, optimizer.WithClock(func() time.Time { return now }))

	priority := model.PrioritySavings
	if sc.Request.Priority != "" {
		priority, err = model.ParsePriority(sc.Request.Priority)
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
	}
	res, err := opt.Optimize(ctx, model.OptimizationRequest{
		UserID:    "qa",
		EnergyKWh: sc.Request.EnergyKWh,
		ReadyBy:   at(sc.Request.ReadyByHour),
		Priority:  priority,
		ChargerID: sc.Request.ChargerID,
	})
	if err != nil {
		t.Fatalf("scenario %s: optimize: %v", sc.Name, err)
	}

	if sc.Expected.Infeasible {
		if res.Infeasible == nil {
			t.Errorf("scenario %s: expected infeasible, got %d slots", sc.Name, len(res.Slots))
		}
		return
	}
	if res.Infeasible != nil {
		t.Fatalf("scenario %s: unexpected infeasibility: %v", sc.Name, res.Infeasible)
	}
	if len(res.Slots) != sc.Expected.Slots {
		t.Errorf("scenario %s: expected %d slots, got %d", sc.Name, sc.Expected.Slots, len(res.Slots))
	}
	if sc.Expected.BestCharger != "" && len(res.Slots) > 0 {
		if got := res.Slots[0].ChargerID; got != sc.Expected.BestCharger {
			t.Errorf("scenario %s: best charger %s, want %s", sc.Name, got, sc.Expected.BestCharger)
		}
	}
}
