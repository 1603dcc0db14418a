package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/core/model"
)

func TestPromSink_RecordOptimization(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	rec := coremetrics.OptimizationRecord{
		UserID:   "u1",
		Priority: model.PriorityGreen,
		Slots:    3,
		Elapsed:  20 * time.Millisecond,
		Time:     time.Now(),
	}
	if err := sink.RecordOptimization(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP optimize_requests_total Total number of slot optimization requests
# TYPE optimize_requests_total counter
optimize_requests_total{degraded="false",infeasible="false",priority="Green"} 1
`
	if err := testutil.CollectAndCompare(sink.optimizations, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.optimizeTime); c == 0 {
		t.Errorf("duration not recorded")
	}
}

func TestPromSink_RecordBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	for _, outcome := range []string{"reserved", "conflict", "cancelled"} {
		if err := sink.RecordBooking(coremetrics.BookingRecord{ChargerID: "c1", Outcome: outcome}); err != nil {
			t.Fatalf("record %s: %v", outcome, err)
		}
	}
	if c := testutil.CollectAndCount(sink.bookings); c != 3 {
		t.Errorf("booking series = %d, want 3", c)
	}
}

func TestPromSink_ChargerGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordChargerCount(model.ChargerAvailable, 4); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if got := testutil.ToFloat64(sink.chargers.WithLabelValues("Available")); got != 4 {
		t.Errorf("chargers_total{status=Available} = %v, want 4", got)
	}
}

func TestPromSink_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
