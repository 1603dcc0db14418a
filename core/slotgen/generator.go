// Package slotgen enumerates candidate charging windows inside free
// availability windows, respecting the required charge duration and the
// ready-by deadline.
package slotgen

import (
	"errors"
	"fmt"
	"time"

	"github.com/smartev/scheduler/core/model"
)

// ErrInvalidEnergy is returned for a non-positive energy requirement.
var ErrInvalidEnergy = errors.New("energy needed must be positive")

// ErrInvalidRate is returned for a non-positive charging rate.
var ErrInvalidRate = errors.New("charging rate must be positive")

// InfeasibleError signals that no window wide enough exists before the
// deadline. HoursAvailable is clamped to zero when the deadline has passed.
type InfeasibleError struct {
	TimeNeededHours float64
	HoursAvailable  float64
	ReadyBy         time.Time
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("need %.2fh of charging but only %.2fh remain before %s",
		e.TimeNeededHours, e.HoursAvailable, e.ReadyBy.Format(time.RFC3339))
}

// Generator produces candidate slots. Step controls the spacing between
// candidates inside a window; zero means hourly.
type Generator struct {
	Step time.Duration
}

// Candidates returns charging windows of exactly the needed duration that fit
// inside the given free windows and end no later than readyBy. Candidates are
// aligned to the window start and then to round-hour boundaries, ordered by
// start time. When nothing fits, an *InfeasibleError describes the shortfall.
func (g Generator) Candidates(windows []model.Window, energyKWh, rateKW float64, now, readyBy time.Time) ([]model.Window, error) {
	if energyKWh <= 0 {
		return nil, ErrInvalidEnergy
	}
	if rateKW <= 0 {
		return nil, ErrInvalidRate
	}
	step := g.Step
	if step <= 0 {
		step = time.Hour
	}
	needHours := energyKWh / rateKW
	need := time.Duration(needHours * float64(time.Hour))

	var out []model.Window
	for _, w := range windows {
		start := w.Start
		if start.Before(now) {
			start = now
		}
		end := w.End
		if end.After(readyBy) {
			end = readyBy
		}
		// Window-start aligned candidate first, then round-hour steps.
		if !start.Add(need).After(end) {
			out = append(out, model.Window{Start: start, End: start.Add(need)})
		}
		for cur := nextAligned(start, step); !cur.Add(need).After(end); cur = cur.Add(step) {
			if cur.Equal(start) {
				continue
			}
			out = append(out, model.Window{Start: cur, End: cur.Add(need)})
		}
	}
	if len(out) == 0 {
		return nil, &InfeasibleError{
			TimeNeededHours: needHours,
			HoursAvailable:  hoursUntil(now, readyBy),
			ReadyBy:         readyBy,
		}
	}
	return out, nil
}

// nextAligned rounds t up to the next multiple of step (hour boundaries for
// the default step).
func nextAligned(t time.Time, step time.Duration) time.Time {
	aligned := t.Truncate(step)
	if aligned.Before(t) {
		aligned = aligned.Add(step)
	}
	return aligned
}

// hoursUntil returns the fractional hours between now and deadline, never
// negative.
func hoursUntil(now, deadline time.Time) float64 {
	h := deadline.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return h
}
