// Package score ranks candidate charging slots against the solar/cost signal.
// The weight table is keyed by the closed Priority enum so every objective is
// handled explicitly.
package score

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/signal"
)

// Slot labels shown to clients, derived from the dominating score component.
const (
	SourceSolarPeak = "Solar Peak"
	SourceOffPeak   = "Off-Peak Grid"
	SourceStandard  = "Standard"
)

// solarLabelThreshold is the green ratio above which a slot is labelled as
// solar powered.
const solarLabelThreshold = 70.0

// Weights combines the score components. Components are normalized to [0,1]
// before weighting, higher composite is better.
type Weights struct {
	Cost       float64 // cheaper slots score higher
	Green      float64 // higher solar efficiency scores higher
	Urgency    float64 // slots further from the deadline score higher
	EarlyStart float64 // earlier slots score higher
}

// WeightsFor returns the weight table entry for a priority.
func WeightsFor(p model.Priority) Weights {
	switch p {
	case model.PriorityGreen:
		return Weights{Cost: 0.15, Green: 0.7, Urgency: 0.15}
	case model.PrioritySpeed:
		return Weights{Cost: 0.2, Green: 0.1, EarlyStart: 0.7}
	default: // Savings
		return Weights{Cost: 0.7, Green: 0.15, Urgency: 0.15}
	}
}

// Input bundles everything needed to rank candidates on one charger.
type Input struct {
	Charger   model.Charger
	Windows   []model.Window
	EnergyKWh float64
	Priority  model.Priority
	Now       time.Time
	ReadyBy   time.Time
	Points    []signal.Point
}

// Scorer ranks candidate slots. TopN caps the returned list; zero means the
// default of 3.
type Scorer struct {
	TopN int
}

const defaultTopN = 3

type scored struct {
	slot      model.Slot
	composite float64
}

// Rank scores the candidate windows and returns the best slots ordered
// best-first with Rank assigned (1 = best). The result is deterministic for
// identical inputs: ties break by earliest start, then lowest charger id.
func (s Scorer) Rank(in Input) []model.Slot {
	if len(in.Windows) == 0 {
		return nil
	}
	byHour := make(map[time.Time]signal.Point, len(in.Points))
	for _, p := range in.Points {
		byHour[p.Hour.Truncate(time.Hour)] = p
	}

	list := make([]scored, 0, len(in.Windows))
	minCost := math.Inf(1)
	for _, w := range in.Windows {
		green, costFactor := sampleSignal(byHour, w)
		effective := in.EnergyKWh * in.Charger.CostPerKWh * costFactor
		if effective < minCost {
			minCost = effective
		}
		list = append(list, scored{
			slot: model.Slot{
				ChargerID:     in.Charger.ID,
				Start:         w.Start,
				End:           w.End,
				DurationHours: w.Hours(),
				EnergyKWh:     in.EnergyKWh,
				TotalCost:     in.EnergyKWh * in.Charger.CostPerKWh,
				Efficiency:    green,
				Source:        label(green, costFactor),
				Color:         color(green, costFactor),
			},
			composite: effective, // reused below once the minimum is known
		})
	}

	w := WeightsFor(in.Priority)
	horizon := in.ReadyBy.Sub(in.Now).Hours()
	for i := range list {
		effective := list[i].composite
		costScore := 1.0
		if effective > 0 {
			costScore = minCost / effective
		}
		greenScore := list[i].slot.Efficiency / 100
		list[i].composite = w.Cost*costScore +
			w.Green*greenScore +
			w.Urgency*urgency(list[i].slot.End, in.ReadyBy, horizon) +
			w.EarlyStart*earliness(list[i].slot.Start, in.Now, horizon)
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.composite != b.composite {
			return a.composite > b.composite
		}
		if !a.slot.Start.Equal(b.slot.Start) {
			return a.slot.Start.Before(b.slot.Start)
		}
		return a.slot.ChargerID < b.slot.ChargerID
	})

	top := s.TopN
	if top <= 0 {
		top = defaultTopN
	}
	if len(list) > top {
		list = list[:top]
	}
	out := make([]model.Slot, len(list))
	for i, sc := range list {
		sc.slot.Rank = i + 1
		out[i] = sc.slot
	}
	return out
}

// sampleSignal averages the signal over each hour the window spans. Hours
// without a point contribute zero efficiency and a neutral cost factor.
func sampleSignal(byHour map[time.Time]signal.Point, w model.Window) (green, costFactor float64) {
	var effs, factors []float64
	for h := w.Start.Truncate(time.Hour); h.Before(w.End); h = h.Add(time.Hour) {
		if p, ok := byHour[h]; ok {
			effs = append(effs, p.Efficiency)
			factors = append(factors, p.CostFactor)
		} else {
			effs = append(effs, 0)
			factors = append(factors, 1)
		}
	}
	if len(effs) == 0 {
		return 0, 1
	}
	return stat.Mean(effs, nil), stat.Mean(factors, nil)
}

// urgency rewards slack before the deadline: a slot finishing right at
// ready-by gets a mild penalty compared to one finishing early.
func urgency(end, readyBy time.Time, horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	slack := readyBy.Sub(end).Hours() / horizon
	return clamp01(slack)
}

// earliness rewards slots starting sooner.
func earliness(start, now time.Time, horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	return clamp01(1 - start.Sub(now).Hours()/horizon)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func label(green, costFactor float64) string {
	switch {
	case green >= solarLabelThreshold:
		return SourceSolarPeak
	case costFactor < 1:
		return SourceOffPeak
	default:
		return SourceStandard
	}
}

func color(green, costFactor float64) string {
	switch {
	case green >= solarLabelThreshold:
		return "green"
	case costFactor < 1:
		return "blue"
	default:
		return "yellow"
	}
}
