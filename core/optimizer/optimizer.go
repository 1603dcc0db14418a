// Package optimizer orchestrates availability lookup, slot generation and
// scoring. It is pure: concurrent requests read snapshots independently and
// no side effect is produced until the caller reserves a slot through the
// booking store.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/smartev/scheduler/core/availability"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/logger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/score"
	"github.com/smartev/scheduler/core/signal"
	"github.com/smartev/scheduler/core/slotgen"
)

// ErrInvalidDeadline is returned when ready_by is missing.
var ErrInvalidDeadline = errors.New("ready_by must be set")

// ErrNoChargers is returned when no charger is usable for the request.
var ErrNoChargers = errors.New("no available chargers")

// Result is the outcome of an optimization: either ranked slots, or an
// infeasibility report when no slot fits before the deadline. Degraded marks
// cost-only scoring after a signal provider failure.
type Result struct {
	// ChargerID is the charger the search was scoped to, set whenever one
	// was resolved, including infeasible outcomes.
	ChargerID  string
	Slots      []model.Slot
	Infeasible *slotgen.InfeasibleError
	Degraded   bool
}

// Recommendation is the smart-schedule outcome: the overall best charger and
// a single best slot on it. Lower Score is better.
type Recommendation struct {
	Charger model.Charger
	Slot    model.Slot
	Score   float64
}

// Optimizer computes charging recommendations. It holds only read-side
// collaborators and a clock, so instances are safe for concurrent use.
type Optimizer struct {
	chargers charger.Registry
	avail    *availability.Index
	gen      slotgen.Generator
	scorer   score.Scorer
	signals  signal.Provider
	log      logger.Logger
	now      func() time.Time
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) { o.now = now }
}

// WithTopN caps the number of returned slots.
func WithTopN(n int) Option {
	return func(o *Optimizer) { o.scorer.TopN = n }
}

// New returns an Optimizer over the given collaborators.
func New(chargers charger.Registry, avail *availability.Index, signals signal.Provider, log logger.Logger, opts ...Option) *Optimizer {
	o := &Optimizer{
		chargers: chargers,
		avail:    avail,
		signals:  signals,
		log:      log,
		now:      time.Now,
	}
	if o.log == nil {
		o.log = logger.NopLogger{}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize returns ranked candidate slots for the request, or an infeasible
// result carrying the shortfall. A signal provider failure degrades to
// cost-only scoring instead of failing the request.
func (o *Optimizer) Optimize(ctx context.Context, req model.OptimizationRequest) (Result, error) {
	if req.EnergyKWh <= 0 {
		return Result{}, slotgen.ErrInvalidEnergy
	}
	if req.ReadyBy.IsZero() {
		return Result{}, ErrInvalidDeadline
	}
	now := o.now()

	c, err := o.pickCharger(ctx, req)
	if err != nil {
		return Result{}, err
	}

	windows, err := o.avail.FreeWindows(ctx, c.ID, now, req.ReadyBy)
	if err != nil {
		return Result{}, err
	}

	candidates, err := o.gen.Candidates(windows, req.EnergyKWh, c.ChargingRateKW, now, req.ReadyBy)
	if err != nil {
		var inf *slotgen.InfeasibleError
		if errors.As(err, &inf) {
			o.log.Infof("request infeasible: need %.2fh, %.2fh available", inf.TimeNeededHours, inf.HoursAvailable)
			return Result{ChargerID: c.ID, Infeasible: inf}, nil
		}
		return Result{}, err
	}

	points, degraded := o.forecast(ctx, c.Location, now, req.ReadyBy)
	slots := o.scorer.Rank(score.Input{
		Charger:   c,
		Windows:   candidates,
		EnergyKWh: req.EnergyKWh,
		Priority:  req.Priority,
		Now:       now,
		ReadyBy:   req.ReadyBy,
		Points:    points,
	})
	return Result{ChargerID: c.ID, Slots: slots, Degraded: degraded}, nil
}

// smartScheduleSlotHours is the fixed slot length evaluated per charger when
// recommending across the whole network.
const smartScheduleSlotHours = 2

// Composite weights for the cross-charger recommendation; lower is better.
const (
	distanceWeight   = 10.0
	costWeight       = 5.0
	efficiencyWeight = 0.5
)

// SmartSchedule evaluates every usable charger and returns the one with the
// best combination of distance, tariff and solar efficiency, together with
// its earliest conflict-free high-efficiency slot.
func (o *Optimizer) SmartSchedule(ctx context.Context, loc model.Location, energyKWh float64) (Recommendation, error) {
	if energyKWh <= 0 {
		return Recommendation{}, slotgen.ErrInvalidEnergy
	}
	chargers, err := o.chargers.List(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	now := o.now()
	horizon := now.Add(24 * time.Hour)
	points, degraded := o.forecast(ctx, loc, now, horizon)
	if degraded {
		o.log.Warnf("smart schedule running on neutral signal data")
	}

	best := Recommendation{Score: math.Inf(1)}
	found := false
	for _, c := range chargers {
		if c.Status == model.ChargerOffline {
			continue
		}
		slot, ok, err := o.bestSlotOn(ctx, c, points, now, horizon, energyKWh)
		if err != nil {
			return Recommendation{}, err
		}
		if !ok {
			continue
		}
		s := c.DistanceKm(loc)*distanceWeight + c.CostPerKWh*costWeight - slot.Efficiency*efficiencyWeight
		if s < best.Score {
			best = Recommendation{Charger: c, Slot: slot, Score: s}
			found = true
		}
	}
	if !found {
		return Recommendation{}, fmt.Errorf("smart schedule: %w", ErrNoChargers)
	}
	return best, nil
}

// bestSlotOn returns the highest-efficiency conflict-free fixed-length slot
// on the charger within the horizon.
func (o *Optimizer) bestSlotOn(ctx context.Context, c model.Charger, points []signal.Point, now, horizon time.Time, energyKWh float64) (model.Slot, bool, error) {
	windows, err := o.avail.FreeWindows(ctx, c.ID, now, horizon)
	if err != nil {
		return model.Slot{}, false, err
	}
	candidates, err := o.gen.Candidates(windows, float64(smartScheduleSlotHours)*c.ChargingRateKW, c.ChargingRateKW, now, horizon)
	if err != nil {
		var inf *slotgen.InfeasibleError
		if errors.As(err, &inf) {
			return model.Slot{}, false, nil
		}
		return model.Slot{}, false, err
	}
	ranked := score.Scorer{TopN: 1}.Rank(score.Input{
		Charger:   c,
		Windows:   candidates,
		EnergyKWh: energyKWh,
		Priority:  model.PriorityGreen,
		Now:       now,
		ReadyBy:   horizon,
		Points:    points,
	})
	if len(ranked) == 0 {
		return model.Slot{}, false, nil
	}
	return ranked[0], true, nil
}

// pickCharger resolves the charger scoped by the request: an explicit id, the
// nearest usable one, or the first registered charger.
func (o *Optimizer) pickCharger(ctx context.Context, req model.OptimizationRequest) (model.Charger, error) {
	if req.ChargerID != "" {
		return o.chargers.Get(ctx, req.ChargerID)
	}
	chargers, err := o.chargers.List(ctx)
	if err != nil {
		return model.Charger{}, err
	}
	var best model.Charger
	bestDist := math.Inf(1)
	for _, c := range chargers {
		if c.Status == model.ChargerOffline {
			continue
		}
		d := 0.0
		if req.Near != nil {
			d = c.DistanceKm(*req.Near)
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return model.Charger{}, ErrNoChargers
	}
	return best, nil
}

// forecast fetches signal points covering [from, until]. On provider failure
// the request continues with neutral points and degraded scoring.
func (o *Optimizer) forecast(ctx context.Context, loc model.Location, from, until time.Time) ([]signal.Point, bool) {
	hours := int(math.Ceil(until.Sub(from).Hours())) + 1
	if hours < 1 {
		hours = 1
	}
	points, err := o.signals.Forecast(ctx, loc, from.Truncate(time.Hour), hours)
	if err != nil {
		o.log.Warnf("signal provider unavailable, falling back to cost-only scoring: %v", err)
		points, _ = signal.Neutral().Forecast(ctx, loc, from.Truncate(time.Hour), hours)
		return points, true
	}
	return points, false
}
