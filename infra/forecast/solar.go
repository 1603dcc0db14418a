// Package forecast turns Met.no weather data into the hourly solar
// efficiency signal consumed by the optimizer. The efficiency model is a
// simple physical one: solar altitude by hour, cloud attenuation, radiation
// relative to standard test conditions.
package forecast

import (
	"math"
	"time"

	"github.com/smartev/scheduler/core/pricing"
)

// Defaults used when a weather point is missing for an hour.
const (
	defaultCloudCover = 20.0
	defaultTempC      = 25.0
)

// solarAltitude estimates the solar altitude angle in degrees for an hour of
// day. The sun is modelled up between 06:00 and 18:00 with a sine path
// peaking at noon; below the horizon returns -1.
func solarAltitude(hour int) float64 {
	angle := float64(hour-6) * (180.0 / 12.0)
	if angle < 0 || angle > 180 {
		return -1
	}
	return math.Sin(angle*math.Pi/180) * 90
}

// radiation estimates the surface radiation in W/m2 given cloud cover 0..100.
// Clouds block up to 85% of the incoming light.
func radiation(hour int, cloudCover float64) float64 {
	alt := solarAltitude(hour)
	if alt <= 0 {
		return 0
	}
	clearSky := alt * 12 // ~1080 W/m2 at the noon peak
	attenuation := 1 - (cloudCover/100)*0.85
	r := clearSky * attenuation
	if r < 0 {
		return 0
	}
	return r
}

// efficiency converts radiation into a panel output percentage, where 1000
// W/m2 corresponds to rated output.
func efficiency(hour int, cloudCover float64) float64 {
	if solarAltitude(hour) <= 0 {
		return 0
	}
	eff := radiation(hour, cloudCover) / 1000 * 100
	if eff < 0 {
		return 0
	}
	if eff > 100 {
		return 100
	}
	return eff
}

// uvIndex approximates the UV index from solar altitude and cloud cover.
// Clouds block UV less than visible light.
func uvIndex(hour int, cloudCover float64) float64 {
	alt := solarAltitude(hour)
	if alt <= 0 {
		return 0
	}
	uv := alt / 90 * 12 * (1 - (cloudCover/100)*0.7)
	if uv < 0 {
		return 0
	}
	return uv
}

// gridLoad estimates the relative grid demand 0..100 for an hour, adjusted
// for temperature driven heating/cooling demand.
func gridLoad(hour int, tempC float64) float64 {
	var base float64
	switch {
	case hour < 6:
		base = 30 + float64(hour)*2
	case hour < 10:
		base = 50 + float64(hour-6)*10
	case hour < 17:
		base = 70
	case hour < 21:
		base = 80 + float64(hour-17)*5
	default:
		base = 60 - float64(hour-21)*10
	}
	factor := 1.0
	if tempC > 25 {
		factor = 1 + (tempC-25)*0.05
	} else if tempC < 10 {
		factor = 1 + (10-tempC)*0.03
	}
	load := base * factor
	if load > 100 {
		return 100
	}
	return load
}

// Entry is one hour of the rich forecast exposed over the API.
type Entry struct {
	Hour       int     `json:"hour"`
	Efficiency float64 `json:"efficiency"`
	GridLoad   float64 `json:"grid_load"`
	Label      string  `json:"label"`
	FullLabel  string  `json:"full_label"`
	IsPeak     bool    `json:"is_peak"`
	Weather    Weather `json:"weather"`
}

// Weather carries the inputs behind an Entry.
type Weather struct {
	CloudCover float64 `json:"cloud_cover"`
	Radiation  float64 `json:"radiation"`
	TempC      float64 `json:"temp_c"`
	UVIndex    float64 `json:"uv_index"`
}

// entryFor builds the forecast entry for one hour from observed weather.
func entryFor(at, now time.Time, cloudCover, tempC float64) Entry {
	h := at.Hour()
	dayPrefix := "Tomorrow"
	if at.YearDay() == now.YearDay() && at.Year() == now.Year() {
		dayPrefix = "Today"
	}
	eff := efficiency(h, cloudCover)
	return Entry{
		Hour:       h,
		Efficiency: round1(eff),
		GridLoad:   round1(gridLoad(h, tempC)),
		Label:      at.Format("15:00"),
		FullLabel:  dayPrefix + " " + at.Format("15:00"),
		IsPeak:     eff > 80,
		Weather: Weather{
			CloudCover: round1(cloudCover),
			Radiation:  round1(radiation(h, cloudCover)),
			TempC:      tempC,
			UVIndex:    round1(uvIndex(h, cloudCover)),
		},
	}
}

// costFactor exposes the tariff band multiplier for an hour, so the signal
// carries both sides of the cost/green trade-off.
func costFactor(hour int) float64 {
	return pricing.BandForHour(hour).CostFactor()
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
