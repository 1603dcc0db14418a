package model

import (
	"fmt"
	"math"
)

// ChargerStatus describes the operational state of a charger.
type ChargerStatus int

const (
	ChargerAvailable ChargerStatus = iota
	ChargerOccupied
	ChargerOffline
)

// String returns the textual representation used on the wire.
func (s ChargerStatus) String() string {
	switch s {
	case ChargerAvailable:
		return "Available"
	case ChargerOccupied:
		return "Occupied"
	case ChargerOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// ParseChargerStatus converts the wire representation back to a status.
func ParseChargerStatus(s string) (ChargerStatus, error) {
	switch s {
	case "Available":
		return ChargerAvailable, nil
	case "Occupied":
		return ChargerOccupied, nil
	case "Offline":
		return ChargerOffline, nil
	}
	return 0, fmt.Errorf("unknown charger status %q", s)
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Charger represents a charging station. Chargers are created by an external
// admin flow and are read-only to the optimizer.
type Charger struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Location       Location      `json:"location"`
	CostPerKWh     float64       `json:"cost_per_kwh"` // base currency units (INR)
	Status         ChargerStatus `json:"-"`
	ChargingRateKW float64       `json:"charging_rate_kw"`
}

// Validate checks that the charger configuration is sound.
func (c Charger) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("charger id must not be empty")
	}
	if c.ChargingRateKW <= 0 {
		return fmt.Errorf("charging rate must be positive")
	}
	if c.CostPerKWh < 0 {
		return fmt.Errorf("cost per kWh must not be negative")
	}
	return nil
}

const earthRadiusKm = 6371

// DistanceKm returns the haversine distance between the charger and the
// given point.
func (c Charger) DistanceKm(p Location) float64 {
	dLat := radians(p.Lat - c.Location.Lat)
	dLng := radians(p.Lng - c.Location.Lng)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(c.Location.Lat))*math.Cos(radians(p.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
