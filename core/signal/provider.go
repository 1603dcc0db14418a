// Package signal defines the boundary to the external solar/cost signal
// source. The core only consumes hourly points; fetching, caching and model
// details live behind the Provider interface.
package signal

import (
	"context"
	"time"

	"github.com/smartev/scheduler/core/model"
)

// Point is the signal sampled for one hour.
type Point struct {
	Hour       time.Time // truncated to the hour, UTC
	Efficiency float64   // solar efficiency 0..100
	CostFactor float64   // relative cost multiplier, 1 = standard tariff
}

// Provider returns hourly signal points for a location. Implementations must
// be side effect free from the caller's perspective.
type Provider interface {
	// Forecast returns one point per hour starting at from, for the given
	// number of hours.
	Forecast(ctx context.Context, loc model.Location, from time.Time, hours int) ([]Point, error)
}

// Static is a deterministic Provider used in tests and as the degraded-mode
// fallback: a fixed efficiency curve by hour of day and a neutral cost factor.
type Static struct {
	// ByHour maps hour-of-day (0..23) to efficiency. Missing hours are 0.
	ByHour map[int]float64
	// CostFactor applies to every point; zero means 1.
	CostFactor float64
}

// Forecast implements Provider.
func (s Static) Forecast(ctx context.Context, loc model.Location, from time.Time, hours int) ([]Point, error) {
	cf := s.CostFactor
	if cf == 0 {
		cf = 1
	}
	pts := make([]Point, 0, hours)
	cur := from.Truncate(time.Hour)
	for i := 0; i < hours; i++ {
		h := cur.Add(time.Duration(i) * time.Hour)
		pts = append(pts, Point{Hour: h, Efficiency: s.ByHour[h.Hour()], CostFactor: cf})
	}
	return pts, nil
}

// Neutral returns a provider with zero efficiency everywhere, used when the
// upstream signal source is unavailable and scoring degrades to cost only.
func Neutral() Static { return Static{} }
