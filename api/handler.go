// Package api exposes the scheduler over HTTP. Conversion to the requester's
// currency happens here only; the core works in base currency throughout.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/events"
	"github.com/smartev/scheduler/core/logger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/monitoring"
	"github.com/smartev/scheduler/core/optimizer"
	"github.com/smartev/scheduler/core/pricing"
	"github.com/smartev/scheduler/core/slotgen"
	"github.com/smartev/scheduler/infra/forecast"
	"github.com/smartev/scheduler/internal/eventbus"
)

// Defaults mirrored from the optimize contract.
const (
	defaultSmartEnergyKWh = 20.0
	defaultBookingsLimit  = 5
	defaultForecastHours  = 12
	defaultForecastLat    = 12.9716
	defaultForecastLng    = 77.5946
	fallbackDeadlineHours = 24
)

// ForecastSource serves the rich hourly forecast endpoint.
type ForecastSource interface {
	Entries(ctx context.Context, loc model.Location, hours int) ([]forecast.Entry, error)
}

// Handler holds the HTTP dependencies.
type Handler struct {
	opt      *optimizer.Optimizer
	store    booking.Store
	chargers charger.Registry
	forecast ForecastSource
	bus      eventbus.Bus
	log      logger.Logger
	now      func() time.Time
}

// NewHandler wires the HTTP surface. bus and fc may be nil; the matching
// endpoints then degrade (no events, 503 forecast).
func NewHandler(opt *optimizer.Optimizer, store booking.Store, chargers charger.Registry, fc ForecastSource, bus eventbus.Bus, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{
		opt:      opt,
		store:    store,
		chargers: chargers,
		forecast: fc,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Router returns the configured mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.health).Methods("GET")
	r.HandleFunc("/api/optimize", h.optimize).Methods("POST")
	r.HandleFunc("/api/smart-schedule", h.smartSchedule).Methods("POST")
	r.HandleFunc("/api/book", h.book).Methods("POST")
	r.HandleFunc("/api/cancel-booking", h.cancelBooking).Methods("POST")
	r.HandleFunc("/api/clear-history", h.clearHistory).Methods("POST")
	r.HandleFunc("/api/bookings", h.bookings).Methods("POST")
	r.HandleFunc("/api/chargers", h.listChargers).Methods("GET")
	r.HandleFunc("/api/solar-forecast", h.solarForecast).Methods("GET")
	r.HandleFunc("/api/currency-rate", h.currencyRate).Methods("GET")
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "active",
		"service": "Smart EV Scheduler API",
	})
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	readyBy := h.parseDeadline(req.ReadyBy)

	started := h.now()
	res, err := h.opt.Optimize(r.Context(), model.OptimizationRequest{
		UserID:    req.UserID,
		EnergyKWh: req.EnergyNeeded,
		ReadyBy:   readyBy,
		Priority:  priority,
		Country:   req.Country,
	})
	h.publish(events.OptimizationEvent{
		UserID:     req.UserID,
		Priority:   priority,
		ChargerID:  res.ChargerID,
		Slots:      len(res.Slots),
		Infeasible: res.Infeasible != nil,
		Degraded:   res.Degraded,
		Elapsed:    h.now().Sub(started),
		Time:       h.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, slotgen.ErrInvalidEnergy), errors.Is(err, optimizer.ErrInvalidDeadline):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, charger.ErrNotFound), errors.Is(err, optimizer.ErrNoChargers):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Errorf("optimize failed: %v", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	cur := pricing.CurrencyFor(req.Country)
	resp := scheduleResponse{
		Slots:    []wireSlot{},
		Currency: cur.Symbol,
		Rate:     cur.Rate,
	}
	if res.Infeasible != nil {
		inf := res.Infeasible
		resp.DebugInfo = map[string]any{
			"time_needed_hours": round2(inf.TimeNeededHours),
			"hours_available":   round2(inf.HoursAvailable),
			"ready_by":          inf.ReadyBy.Format(time.RFC3339),
			"energy_needed":     req.EnergyNeeded,
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, s := range res.Slots {
		resp.Slots = append(resp.Slots, toWireSlot(s, cur))
	}
	resp.TotalCost = resp.Slots[0].TotalCost
	savings := pricing.WorstCaseCost(req.EnergyNeeded) - res.Slots[0].TotalCost
	if savings < 0 {
		savings = 0
	}
	resp.Savings = round2(savings * cur.Rate)
	resp.DebugInfo = map[string]any{
		"ready_by":        readyBy.Format(time.RFC3339),
		"energy_needed":   req.EnergyNeeded,
		"slots_returned":  len(resp.Slots),
		"degraded_signal": res.Degraded,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) smartSchedule(w http.ResponseWriter, r *http.Request) {
	var req smartScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	energy := defaultSmartEnergyKWh
	if req.EnergyNeeded != nil {
		energy = *req.EnergyNeeded
	}
	rec, err := h.opt.SmartSchedule(r.Context(), model.Location{Lat: req.Lat, Lng: req.Lng}, energy)
	if err != nil {
		switch {
		case errors.Is(err, slotgen.ErrInvalidEnergy):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, optimizer.ErrNoChargers):
			writeError(w, http.StatusNotFound, "could not find any available slot across all chargers")
		default:
			h.log.Errorf("smart schedule failed: %v", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"charger": wireCharger{Charger: rec.Charger, Status: rec.Charger.Status.String()},
		"best_slot": map[string]any{
			"start_time": rec.Slot.Start.Format(time.RFC3339),
			"end_time":   rec.Slot.End.Format(time.RFC3339),
			"efficiency": round1(rec.Slot.Efficiency),
		},
		"score":   round2(rec.Score),
		"message": "Found most cost-efficient and solar-friendly charging option",
	})
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time")
		return
	}
	if _, err := h.chargers.Get(r.Context(), req.ChargerID); err != nil {
		if errors.Is(err, charger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.log.Errorf("charger lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	b, err := h.store.Reserve(r.Context(), model.Booking{
		ChargerID: req.ChargerID,
		UserID:    req.UserID,
		Start:     start,
		End:       end,
		EnergyKWh: req.EnergyKWh,
		TotalCost: req.TotalCost,
		Status:    model.BookingConfirmed,
	})
	if err != nil {
		var conflict *booking.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, errorResponse{
				Detail:   conflict.Error(),
				Blocking: &conflict.Blocking,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"booking": wireBooking{Booking: b, Status: b.Status.String()},
	})
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.Cancel(r.Context(), req.BookingID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.log.Errorf("cancel failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Booking cancelled successfully",
	})
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	var req clearHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.store.ClearHistory(r.Context(), req.UserID)
	if err != nil {
		h.log.Errorf("clear history failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cleared " + strconv.Itoa(n) + " past bookings",
	})
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request) {
	var req bookingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultBookingsLimit
	}
	list, err := h.store.UpcomingByUser(r.Context(), req.UserID, h.now(), limit)
	if err != nil {
		h.log.Errorf("bookings lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	wire := make([]wireBooking, 0, len(list))
	for _, b := range list {
		wire = append(wire, wireBooking{Booking: b, Status: b.Status.String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"bookings": wire,
	})
}

func (h *Handler) listChargers(w http.ResponseWriter, r *http.Request) {
	list, err := h.chargers.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	wire := make([]wireCharger, 0, len(list))
	for _, c := range list {
		wire = append(wire, wireCharger{Charger: c, Status: c.Status.String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"chargers": wire,
	})
}

func (h *Handler) solarForecast(w http.ResponseWriter, r *http.Request) {
	if h.forecast == nil {
		writeError(w, http.StatusServiceUnavailable, "forecast source not configured")
		return
	}
	hours := queryInt(r, "hours_ahead", defaultForecastHours)
	lat := queryFloat(r, "lat", defaultForecastLat)
	lng := queryFloat(r, "lng", defaultForecastLng)

	entries, err := h.forecast.Entries(r.Context(), model.Location{Lat: lat, Lng: lng}, hours)
	if err != nil {
		h.log.Errorf("forecast failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"location": map[string]float64{"lat": lat, "lng": lng},
		"forecast": entries,
	})
}

func (h *Handler) currencyRate(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "India"
	}
	info := pricing.CurrencyFor(country)
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": info.Symbol,
		"rate":     info.Rate,
		"code":     info.Code,
	})
}

// parseDeadline accepts RFC3339 or a bare "15:04" clock time meaning the
// next occurrence. Unparseable input falls back to 24 hours out.
func (h *Handler) parseDeadline(s string) time.Time {
	if s == "" {
		return h.now().Add(fallbackDeadlineHours * time.Hour)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if clock, err := time.Parse("15:04", s); err == nil {
		now := h.now()
		t := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if t.Before(now) {
			t = t.Add(24 * time.Hour)
		}
		return t
	}
	h.log.Warnf("unparseable ready_by %q, assuming 24h", s)
	return h.now().Add(fallbackDeadlineHours * time.Hour)
}

func (h *Handler) publish(ev eventbus.Event) {
	if h.bus != nil {
		h.bus.Publish(ev)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	if status >= http.StatusInternalServerError {
		monitoring.CaptureException(errors.New(detail), map[string]string{"status": strconv.Itoa(status)})
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
