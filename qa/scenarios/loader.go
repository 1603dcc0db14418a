// Package scenarios runs YAML-described optimization cases against a fully
// wired in-memory stack. The files double as living documentation of the
// slot search behaviour.
package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartev/scheduler/core/model"
)

type ChargerDef struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Lat        float64 `yaml:"lat"`
	Lng        float64 `yaml:"lng"`
	CostPerKWh float64 `yaml:"cost_per_kwh"`
	RateKW     float64 `yaml:"rate_kw"`
	Status     string  `yaml:"status,omitempty"`
}

func (c ChargerDef) ToModel() (model.Charger, error) {
	status := model.ChargerAvailable
	if c.Status != "" {
		var err error
		status, err = model.ParseChargerStatus(c.Status)
		if err != nil {
			return model.Charger{}, err
		}
	}
	rate := c.RateKW
	if rate == 0 {
		rate = 7
	}
	return model.Charger{
		ID:             c.ID,
		Name:           c.Name,
		Location:       model.Location{Lat: c.Lat, Lng: c.Lng},
		CostPerKWh:     c.CostPerKWh,
		ChargingRateKW: rate,
		Status:         status,
	}, nil
}

type BookingDef struct {
	ChargerID string `yaml:"charger_id"`
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
}

type RequestDef struct {
	EnergyKWh   float64 `yaml:"energy_kwh"`
	ReadyByHour int     `yaml:"ready_by_hour"`
	Priority    string  `yaml:"priority"`
	ChargerID   string  `yaml:"charger_id,omitempty"`
}

type Expected struct {
	Slots       int    `yaml:"slots"`
	BestCharger string `yaml:"best_charger,omitempty"`
	Infeasible  bool   `yaml:"infeasible,omitempty"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	NowHour     int             `yaml:"now_hour"`
	Efficiency  map[int]float64 `yaml:"efficiency,omitempty"`
	Chargers    []ChargerDef    `yaml:"chargers"`
	Bookings    []BookingDef    `yaml:"bookings,omitempty"`
	Request     RequestDef      `yaml:"request"`
	Expected    Expected        `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// day anchors every scenario to a fixed date so results are reproducible.
var day = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }
