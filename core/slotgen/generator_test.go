package slotgen

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smartev/scheduler/core/model"
)

func TestCandidatesFreeDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	readyBy := now.Add(10 * time.Hour)
	windows := []model.Window{{Start: now, End: readyBy}}

	// 40 kWh at 7 kW needs 5.71h.
	got, err := Generator{}.Candidates(windows, 40, 7, now, readyBy)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected candidates")
	}
	need := 40.0 / 7.0
	for _, w := range got {
		if w.Start.Before(now) {
			t.Fatalf("candidate starts in the past: %+v", w)
		}
		if w.End.After(readyBy) {
			t.Fatalf("candidate ends after deadline: %+v", w)
		}
		if math.Abs(w.Hours()-need) > 1e-9 {
			t.Fatalf("candidate duration %.4fh, want %.4fh", w.Hours(), need)
		}
	}
	// Hourly alignment: candidates at 08:00, 09:00, ..., 12:00 (12:00+5.71h <= 18:00).
	if len(got) != 5 {
		t.Fatalf("expected 5 hourly candidates, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Start.After(got[i-1].Start) {
			t.Fatal("candidates must be ordered by start")
		}
	}
}

func TestCandidatesWindowStartAlignment(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	readyBy := now.Add(4 * time.Hour)
	windows := []model.Window{{Start: now, End: readyBy}}

	got, err := Generator{}.Candidates(windows, 14, 7, now, readyBy) // 2h
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if !got[0].Start.Equal(now) {
		t.Fatalf("first candidate must align to window start, got %v", got[0].Start)
	}
	if !got[1].Start.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("second candidate must align to the next round hour, got %v", got[1].Start)
	}
}

func TestCandidatesExcludeBookedRange(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := day.Add(8 * time.Hour)
	readyBy := day.Add(14 * time.Hour)
	// 09:00-12:00 is booked; free windows are 08:00-09:00 and 12:00-14:00.
	windows := []model.Window{
		{Start: day.Add(8 * time.Hour), End: day.Add(9 * time.Hour)},
		{Start: day.Add(12 * time.Hour), End: day.Add(14 * time.Hour)},
	}

	got, err := Generator{}.Candidates(windows, 14, 7, now, readyBy) // 2h slot
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	booked := model.Booking{Start: day.Add(9 * time.Hour), End: day.Add(12 * time.Hour)}
	for _, w := range got {
		if booked.Overlaps(w.Start, w.End) {
			t.Fatalf("candidate %+v intersects the booked range", w)
		}
	}
	if len(got) != 1 || !got[0].Start.Equal(day.Add(12*time.Hour)) {
		t.Fatalf("expected the single 12:00 candidate, got %+v", got)
	}
}

func TestCandidatesInfeasible(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	readyBy := now.Add(2 * time.Hour)
	windows := []model.Window{{Start: now, End: readyBy.Add(12 * time.Hour)}}

	_, err := Generator{}.Candidates(windows, 40, 7, now, readyBy)
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
	if math.Abs(inf.TimeNeededHours-40.0/7.0) > 1e-9 {
		t.Fatalf("time needed %.4f, want %.4f", inf.TimeNeededHours, 40.0/7.0)
	}
	if math.Abs(inf.HoursAvailable-2) > 1e-9 {
		t.Fatalf("hours available %.4f, want 2", inf.HoursAvailable)
	}
}

func TestCandidatesPastDeadlineClampsToZero(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	readyBy := now.Add(-3 * time.Hour)

	_, err := Generator{}.Candidates([]model.Window{{Start: now, End: now.Add(12 * time.Hour)}}, 7, 7, now, readyBy)
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
	if inf.HoursAvailable != 0 {
		t.Fatalf("hours available must clamp to 0, got %.2f", inf.HoursAvailable)
	}
}

func TestCandidatesValidation(t *testing.T) {
	now := time.Now()
	g := Generator{}
	if _, err := g.Candidates(nil, 0, 7, now, now.Add(time.Hour)); !errors.Is(err, ErrInvalidEnergy) {
		t.Fatalf("expected ErrInvalidEnergy, got %v", err)
	}
	if _, err := g.Candidates(nil, 10, 0, now, now.Add(time.Hour)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}
