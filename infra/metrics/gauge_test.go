package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/model"
)

func TestRecordChargerCounts(t *testing.T) {
	reg, err := charger.NewMemoryRegistry([]model.Charger{
		{ID: "c1", ChargingRateKW: 7, Status: model.ChargerAvailable},
		{ID: "c2", ChargingRateKW: 7, Status: model.ChargerAvailable},
		{ID: "c3", ChargingRateKW: 22, Status: model.ChargerOccupied},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}

	if err := RecordChargerCounts(context.Background(), reg, sink); err != nil {
		t.Fatalf("record counts: %v", err)
	}
	for status, want := range map[model.ChargerStatus]float64{
		model.ChargerAvailable: 2,
		model.ChargerOccupied:  1,
		model.ChargerOffline:   0,
	} {
		got := testutil.ToFloat64(sink.chargers.WithLabelValues(status.String()))
		if got != want {
			t.Errorf("chargers_total{status=%q} = %v, want %v", status, got, want)
		}
	}

	// Gauges follow the registry, down as well as up.
	if err := reg.SetStatus(context.Background(), "c2", model.ChargerOffline); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := RecordChargerCounts(context.Background(), reg, sink); err != nil {
		t.Fatalf("record counts: %v", err)
	}
	if got := testutil.ToFloat64(sink.chargers.WithLabelValues("Available")); got != 1 {
		t.Errorf("available after status change = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.chargers.WithLabelValues("Offline")); got != 1 {
		t.Errorf("offline after status change = %v, want 1", got)
	}
}

func TestRecordChargerCountsPlainSink(t *testing.T) {
	reg, err := charger.NewMemoryRegistry([]model.Charger{
		{ID: "c1", ChargingRateKW: 7},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	// A sink without gauge support is skipped, not an error.
	if err := RecordChargerCounts(context.Background(), reg, &optimizeOnlySink{}); err != nil {
		t.Fatalf("record counts: %v", err)
	}
}
