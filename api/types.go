package api

import (
	"math"
	"time"

	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/pricing"
)

// optimizeRequest is the POST /api/optimize body.
type optimizeRequest struct {
	UserID       string  `json:"user_id"`
	EnergyNeeded float64 `json:"energy_needed"`
	ReadyBy      string  `json:"ready_by"`
	Priority     string  `json:"priority"`
	Country      string  `json:"country"`
}

// scheduleResponse is the POST /api/optimize reply. Amounts are converted to
// the requester's currency; rate is the conversion applied.
type scheduleResponse struct {
	Slots     []wireSlot     `json:"slots"`
	TotalCost float64        `json:"total_cost"`
	Savings   float64        `json:"savings"`
	Currency  string         `json:"currency"`
	Rate      float64        `json:"rate"`
	DebugInfo map[string]any `json:"debug_info,omitempty"`
}

// wireSlot is a ranked slot in presentation currency.
type wireSlot struct {
	ChargerID     string  `json:"charger_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	DurationHours float64 `json:"duration_hours"`
	EnergyKWh     float64 `json:"energy_kwh"`
	Rate          float64 `json:"rate"`
	TotalCost     float64 `json:"total_cost"`
	Efficiency    float64 `json:"efficiency_score"`
	Source        string  `json:"source"`
	Color         string  `json:"color"`
	Score         int     `json:"score"` // ordinal, 1 = best
}

func toWireSlot(s model.Slot, cur pricing.CurrencyInfo) wireSlot {
	rate := 0.0
	if s.EnergyKWh > 0 {
		rate = s.TotalCost / s.EnergyKWh
	}
	return wireSlot{
		ChargerID:     s.ChargerID,
		StartTime:     s.Start.Format(time.RFC3339),
		EndTime:       s.End.Format(time.RFC3339),
		DurationHours: round1(s.DurationHours),
		EnergyKWh:     s.EnergyKWh,
		Rate:          round2(rate * cur.Rate),
		TotalCost:     round2(s.TotalCost * cur.Rate),
		Efficiency:    round1(s.Efficiency),
		Source:        s.Source,
		Color:         s.Color,
		Score:         s.Rank,
	}
}

// smartScheduleRequest is the POST /api/smart-schedule body.
type smartScheduleRequest struct {
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	EnergyNeeded *float64 `json:"energy_needed"`
}

// wireCharger exposes the charger with its status spelled out.
type wireCharger struct {
	model.Charger
	Status string `json:"status"`
}

// bookRequest is the POST /api/book body.
type bookRequest struct {
	UserID    string  `json:"user_id"`
	ChargerID string  `json:"charger_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	EnergyKWh float64 `json:"energy_kwh"`
	TotalCost float64 `json:"total_cost"`
}

// wireBooking exposes a booking with its status spelled out.
type wireBooking struct {
	model.Booking
	Status string `json:"status"`
}

type cancelBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type clearHistoryRequest struct {
	UserID string `json:"user_id"`
}

type bookingsRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// errorResponse mirrors the {"detail": ...} error convention.
type errorResponse struct {
	Detail   string        `json:"detail"`
	Blocking *model.Window `json:"blocking,omitempty"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
