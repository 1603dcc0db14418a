// Package pricing models the time-of-use tariff and currency presentation
// data. Rates are expressed in the base currency (INR); conversion is a
// presentation concern applied at the API layer, never inside the core.
package pricing

// Time-of-use rates in INR per kWh.
const (
	RateSolar    = 8.0  // 10:00-16:00
	RateOffPeak  = 10.0 // 22:00-06:00
	RatePeak     = 18.0 // 18:00-22:00
	RateStandard = 13.0
)

// Band identifies the tariff band in effect at a given hour.
type Band int

const (
	BandStandard Band = iota
	BandSolar
	BandOffPeak
	BandPeak
)

// BandForHour returns the tariff band for an hour of day (0..23).
func BandForHour(hour int) Band {
	switch {
	case hour >= 10 && hour < 16:
		return BandSolar
	case hour >= 22 || hour < 6:
		return BandOffPeak
	case hour >= 18 && hour < 22:
		return BandPeak
	default:
		return BandStandard
	}
}

// Rate returns the INR per-kWh rate of the band.
func (b Band) Rate() float64 {
	switch b {
	case BandSolar:
		return RateSolar
	case BandOffPeak:
		return RateOffPeak
	case BandPeak:
		return RatePeak
	default:
		return RateStandard
	}
}

// CostFactor returns the band rate relative to the standard rate, suitable as
// a signal cost multiplier.
func (b Band) CostFactor() float64 { return b.Rate() / RateStandard }

// WorstCaseCost returns the peak-band cost of charging the given energy,
// used as the baseline for the savings figure reported to clients.
func WorstCaseCost(energyKWh float64) float64 { return RatePeak * energyKWh }
