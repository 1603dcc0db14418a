package mqtt

import (
	"context"
	"testing"

	"github.com/smartev/scheduler/core/charger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/infra/logger"
)

func testRegistry(t *testing.T) *charger.MemoryRegistry {
	t.Helper()
	reg, err := charger.NewMemoryRegistry([]model.Charger{{
		ID:             "c1",
		Name:           "Depot North",
		CostPerKWh:     12,
		ChargingRateKW: 7,
	}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestChargerIDFromTopic(t *testing.T) {
	cases := []struct {
		topic string
		id    string
		ok    bool
	}{
		{"chargers/c1/status", "c1", true},
		{"chargers/depot-7/status", "depot-7", true},
		{"chargers//status", "", false},
		{"chargers/c1/telemetry", "", false},
		{"vehicles/c1/status", "", false},
		{"chargers/c1", "", false},
	}
	for _, c := range cases {
		id, ok := chargerIDFromTopic(c.topic)
		if id != c.id || ok != c.ok {
			t.Errorf("chargerIDFromTopic(%q) = %q,%v want %q,%v", c.topic, id, ok, c.id, c.ok)
		}
	}
}

func TestApplyUpdatesRegistry(t *testing.T) {
	reg := testRegistry(t)
	f := &StatusFeed{registry: reg, log: logger.New("test")}

	f.apply("chargers/c1/status", []byte(`{"status":"Offline"}`))
	c, err := reg.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Status != model.ChargerOffline {
		t.Fatalf("status = %v, want Offline", c.Status)
	}

	// Bare string payloads are accepted too.
	f.apply("chargers/c1/status", []byte("Available"))
	c, _ = reg.Get(context.Background(), "c1")
	if c.Status != model.ChargerAvailable {
		t.Fatalf("status = %v, want Available", c.Status)
	}
}

func TestApplyDropsBadInput(t *testing.T) {
	reg := testRegistry(t)
	f := &StatusFeed{registry: reg, log: logger.New("test")}

	f.apply("chargers/c1/status", []byte(`{"status":"Broken"}`))
	f.apply("chargers/unknown/status", []byte("Available"))
	f.apply("bogus", []byte("Available"))

	c, err := reg.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Status != model.ChargerAvailable {
		t.Fatalf("status changed by bad input: %v", c.Status)
	}
}
