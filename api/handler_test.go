package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartev/scheduler/core/availability"
	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/events"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/optimizer"
	"github.com/smartev/scheduler/core/signal"
	"github.com/smartev/scheduler/infra/forecast"
	"github.com/smartev/scheduler/internal/eventbus"
)

type staticForecast struct{ entries []forecast.Entry }

func (s staticForecast) Entries(_ context.Context, _ model.Location, hours int) ([]forecast.Entry, error) {
	if hours < len(s.entries) {
		return s.entries[:hours], nil
	}
	return s.entries, nil
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	store   booking.Store
	bus     eventbus.Bus
	now     time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	reg, err := charger.NewMemoryRegistry([]model.Charger{
		{ID: "c1", Name: "Depot A", CostPerKWh: 12, ChargingRateKW: 7,
			Location: model.Location{Lat: 12.9716, Lng: 77.5946}},
		{ID: "c2", Name: "Depot B", CostPerKWh: 9, ChargingRateKW: 7,
			Location: model.Location{Lat: 13.05, Lng: 77.60}},
	})
	require.NoError(t, err)

	store := booking.NewMemoryStore()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	provider := signal.Static{ByHour: map[int]float64{
		10: 80, 11: 90, 12: 95, 13: 95, 14: 90, 15: 80,
	}}
	opt := optimizer.New(reg, availability.NewIndex(reg, store), provider, nil,
		optimizer.WithClock(func() time.Time { return now }))

	bus := eventbus.New()
	h := NewHandler(opt, store, reg, staticForecast{entries: []forecast.Entry{
		{Hour: 12, Efficiency: 95, Label: "12:00"},
	}}, bus, nil)
	h.now = func() time.Time { return now }
	return testEnv{handler: h, router: h.Router(), store: store, bus: bus, now: now}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "active", body["status"])
}

func TestOptimizeReturnsRankedSlots(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:       "u1",
		EnergyNeeded: 40,
		ReadyBy:      env.now.Add(10 * time.Hour).Format(time.RFC3339),
		Priority:     "Savings",
		Country:      "India",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scheduleResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Slots)
	require.LessOrEqual(t, len(resp.Slots), 3)
	assert.Equal(t, 1, resp.Slots[0].Score)
	// No charger or location given: the first charger by id (c1, 12 INR)
	// serves the request. 40 kWh * 12 = 480, savings measured against the
	// 18 INR peak rate worst case (720 - 480).
	assert.InDelta(t, 480.0, resp.TotalCost, 0.01)
	assert.InDelta(t, 240.0, resp.Savings, 0.01)
	assert.Equal(t, "₹", resp.Currency)
	assert.InDelta(t, 1.0, resp.Rate, 1e-9)
	assert.InDelta(t, 12.0, resp.Slots[0].Rate, 0.01)
}

func TestOptimizePublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	sub := env.bus.Subscribe()
	defer env.bus.Unsubscribe(sub)

	rec := env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:       "u1",
		EnergyNeeded: 14,
		ReadyBy:      env.now.Add(6 * time.Hour).Format(time.RFC3339),
		Priority:     "Savings",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case ev := <-sub:
		opt, ok := ev.(events.OptimizationEvent)
		require.True(t, ok, "expected OptimizationEvent, got %T", ev)
		assert.Equal(t, "u1", opt.UserID)
		assert.Equal(t, "c1", opt.ChargerID)
		assert.Greater(t, opt.Slots, 0)
		assert.False(t, opt.Infeasible)
	case <-time.After(time.Second):
		t.Fatal("no optimization event published")
	}
}

func TestOptimizeCurrencyConversion(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:       "u1",
		EnergyNeeded: 40,
		ReadyBy:      env.now.Add(10 * time.Hour).Format(time.RFC3339),
		Country:      "USA",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scheduleResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Slots)
	assert.Equal(t, "$", resp.Currency)
	assert.InDelta(t, 0.012, resp.Rate, 1e-9)
	assert.InDelta(t, 480.0*0.012, resp.TotalCost, 0.01)
}

func TestOptimizeInfeasible(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:       "u1",
		EnergyNeeded: 40, // needs ~5.7h
		ReadyBy:      env.now.Add(2 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scheduleResponse
	decode(t, rec, &resp)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, resp.TotalCost)
	require.NotNil(t, resp.DebugInfo)
	assert.InDelta(t, 5.71, resp.DebugInfo["time_needed_hours"].(float64), 0.01)
	assert.InDelta(t, 2.0, resp.DebugInfo["hours_available"].(float64), 0.01)
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:  "u1",
		ReadyBy: env.now.Add(10 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/api/optimize", optimizeRequest{
		UserID:       "u1",
		EnergyNeeded: 10,
		Priority:     "Turbo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookAndConflict(t *testing.T) {
	env := newTestEnv(t)
	start := env.now.Add(2 * time.Hour)
	end := env.now.Add(5 * time.Hour)

	rec := env.do(t, "POST", "/api/book", bookRequest{
		UserID:    "u1",
		ChargerID: "c1",
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
		EnergyKWh: 21,
		TotalCost: 252,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Status  string      `json:"status"`
		Booking wireBooking `json:"booking"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "success", created.Status)
	assert.NotEmpty(t, created.Booking.ID)
	assert.Equal(t, "Confirmed", created.Booking.Status)

	// Overlapping attempt is rejected with the blocking interval.
	rec = env.do(t, "POST", "/api/book", bookRequest{
		UserID:    "u2",
		ChargerID: "c1",
		StartTime: env.now.Add(4 * time.Hour).Format(time.RFC3339),
		EndTime:   env.now.Add(6 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var conflict errorResponse
	decode(t, rec, &conflict)
	require.NotNil(t, conflict.Blocking)
	assert.True(t, conflict.Blocking.Start.Equal(start))
	assert.True(t, conflict.Blocking.End.Equal(end))

	// Touching interval is fine.
	rec = env.do(t, "POST", "/api/book", bookRequest{
		UserID:    "u2",
		ChargerID: "c1",
		StartTime: end.Format(time.RFC3339),
		EndTime:   env.now.Add(6 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Unknown charger.
	rec = env.do(t, "POST", "/api/book", bookRequest{
		UserID:    "u2",
		ChargerID: "ghost",
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	b, err := env.store.Reserve(context.Background(), model.Booking{
		ChargerID: "c1", UserID: "u1",
		Start: env.now.Add(time.Hour), End: env.now.Add(2 * time.Hour),
		Status: model.BookingConfirmed,
	})
	require.NoError(t, err)

	rec := env.do(t, "POST", "/api/cancel-booking", cancelBookingRequest{BookingID: b.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "POST", "/api/cancel-booking", cancelBookingRequest{BookingID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingsAndClearHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	upcoming, err := env.store.Reserve(ctx, model.Booking{
		ChargerID: "c1", UserID: "u1",
		Start: env.now.Add(time.Hour), End: env.now.Add(2 * time.Hour),
		Status: model.BookingConfirmed,
	})
	require.NoError(t, err)
	stale, err := env.store.Reserve(ctx, model.Booking{
		ChargerID: "c1", UserID: "u1",
		Start: env.now.Add(3 * time.Hour), End: env.now.Add(4 * time.Hour),
		Status: model.BookingConfirmed,
	})
	require.NoError(t, err)
	require.NoError(t, env.store.Cancel(ctx, stale.ID))

	rec := env.do(t, "POST", "/api/bookings", bookingsRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Bookings []wireBooking `json:"bookings"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Bookings, 2)
	assert.Equal(t, upcoming.ID, list.Bookings[0].ID)

	rec = env.do(t, "POST", "/api/clear-history", clearHistoryRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var msg map[string]string
	decode(t, rec, &msg)
	assert.Equal(t, "Cleared 1 past bookings", msg["message"])
}

func TestListChargers(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/chargers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Chargers []wireCharger `json:"chargers"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Chargers, 2)
	assert.Equal(t, "c1", body.Chargers[0].ID)
	assert.Equal(t, "Available", body.Chargers[0].Status)
}

func TestSolarForecastEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/solar-forecast?hours_ahead=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status   string           `json:"status"`
		Forecast []forecast.Entry `json:"forecast"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "success", body.Status)
	require.Len(t, body.Forecast, 1)
	assert.InDelta(t, 95.0, body.Forecast[0].Efficiency, 1e-9)
}

func TestCurrencyRate(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/currency-rate?country=USA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "USD", body["code"])
	assert.Equal(t, "$", body["currency"])
	assert.InDelta(t, 0.012, body["rate"].(float64), 1e-9)
}

func TestSmartScheduleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/smart-schedule", smartScheduleRequest{
		Lat: 12.9716, Lng: 77.5946,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string      `json:"status"`
		Charger wireCharger `json:"charger"`
		Score   float64     `json:"score"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "success", body.Status)
	assert.NotEmpty(t, body.Charger.ID)
}
