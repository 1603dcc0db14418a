package main

import (
	"math/rand"

	"github.com/smartev/scheduler/core/model"
)

// SimulatedCharger random-walks through charger statuses. Transition odds
// favour daytime occupancy so the scheduler sees a realistic feed.
type SimulatedCharger struct {
	ID          string
	Status      model.ChargerStatus
	OfflineRate float64
	// BusyByHour maps hour-of-day to the probability of being occupied.
	BusyByHour [24]float64
}

// Step advances the charger one tick and returns the new status.
func (c *SimulatedCharger) Step(rng *rand.Rand, hour int) model.ChargerStatus {
	if c.Status == model.ChargerOffline {
		// Offline chargers recover half the time.
		if rng.Float64() < 0.5 {
			c.Status = model.ChargerAvailable
		}
		return c.Status
	}
	if c.OfflineRate > 0 && rng.Float64() < c.OfflineRate {
		c.Status = model.ChargerOffline
		return c.Status
	}
	if rng.Float64() < c.BusyByHour[hour%24] {
		c.Status = model.ChargerOccupied
	} else {
		c.Status = model.ChargerAvailable
	}
	return c.Status
}

// DefaultBusyProfile peaks in the morning and evening commute windows.
func DefaultBusyProfile() [24]float64 {
	var prof [24]float64
	for h := range prof {
		switch {
		case h >= 8 && h < 11:
			prof[h] = 0.6
		case h >= 17 && h < 21:
			prof[h] = 0.7
		case h >= 23 || h < 6:
			prof[h] = 0.1
		default:
			prof[h] = 0.3
		}
	}
	return prof
}

// GenerateChargers creates count chargers with IDs chg0001..chgNNNN.
func GenerateChargers(count int, offlineRate float64) []SimulatedCharger {
	if count <= 0 {
		return nil
	}
	prof := DefaultBusyProfile()
	out := make([]SimulatedCharger, count)
	for i := range out {
		out[i] = SimulatedCharger{
			ID:          chargerID(i + 1),
			Status:      model.ChargerAvailable,
			OfflineRate: offlineRate,
			BusyByHour:  prof,
		}
	}
	return out
}

func chargerID(n int) string {
	const digits = "0123456789"
	buf := []byte{'c', 'h', 'g', '0', '0', '0', '0'}
	for i := 6; i >= 3 && n > 0; i-- {
		buf[i] = digits[n%10]
		n /= 10
	}
	return string(buf)
}
