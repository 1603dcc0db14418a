package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartev/scheduler/core/model"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `http:
  port: 9000
store:
  backend: "sqlite"
  path: "test.db"
signal:
  provider: "metno"
  conf:
    base_url: "http://localhost:9090/weather"
metrics:
  prometheus_port: 2112
optimizer:
  top_n: 5
chargers:
  - id: "c1"
    name: "Depot North"
    lat: 12.9716
    lng: 77.5946
    cost_per_kwh: 12
  - id: "c2"
    name: "Depot South"
    lat: 13.05
    lng: 77.60
    cost_per_kwh: 9
    charging_rate_kw: 22
    status: "Offline"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("http port = %d", cfg.HTTP.Port)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "test.db" {
		t.Errorf("store config = %+v", cfg.Store)
	}
	if cfg.Signal.Provider != "metno" {
		t.Errorf("signal provider = %q", cfg.Signal.Provider)
	}
	if cfg.Signal.Conf["base_url"] != "http://localhost:9090/weather" {
		t.Errorf("signal conf = %v", cfg.Signal.Conf)
	}
	if cfg.Optimizer.TopN != 5 {
		t.Errorf("top_n = %d", cfg.Optimizer.TopN)
	}
	if len(cfg.Chargers) != 2 {
		t.Fatalf("chargers = %d", len(cfg.Chargers))
	}
	c1, err := cfg.Chargers[0].Charger()
	if err != nil {
		t.Fatalf("charger seed: %v", err)
	}
	if c1.ChargingRateKW != 7 {
		t.Errorf("default rate = %v, want 7", c1.ChargingRateKW)
	}
	c2, err := cfg.Chargers[1].Charger()
	if err != nil {
		t.Fatalf("charger seed: %v", err)
	}
	if c2.Status != model.ChargerOffline || c2.ChargingRateKW != 22 {
		t.Errorf("charger c2 = %+v", c2)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `chargers: []
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 8000 {
		t.Errorf("default port = %d", cfg.HTTP.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("default store backend = %q", cfg.Store.Backend)
	}
	if cfg.Signal.Provider != "neutral" {
		t.Errorf("default signal provider = %q", cfg.Signal.Provider)
	}
	if cfg.Optimizer.TopN != 3 {
		t.Errorf("default top_n = %d", cfg.Optimizer.TopN)
	}
}

func TestLoadMQTTSection(t *testing.T) {
	path := writeConfig(t, `mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "sched"
  username: "ev"
  qos: 1
  use_tls: true
  ca_bundle: "/etc/ssl/broker.pem"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.MQTT.Enabled {
		t.Error("mqtt should be enabled")
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("mqtt.broker = %q, want tcp://localhost:1883", cfg.MQTT.Broker)
	}
	if cfg.MQTT.ClientID != "sched" {
		t.Errorf("mqtt.client_id = %q, want sched", cfg.MQTT.ClientID)
	}
	feed := cfg.MQTT.Feed()
	if feed.Broker != cfg.MQTT.Broker || feed.Username != "ev" || feed.QoS != 1 {
		t.Errorf("feed config = %+v", feed)
	}
	if !feed.UseTLS || feed.CABundle != "/etc/ssl/broker.pem" {
		t.Errorf("feed tls config = %+v", feed)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `http:
  port: 9000
`)
	t.Setenv("EV_HTTP__PORT", "9100")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("env override ignored, port = %d", cfg.HTTP.Port)
	}
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad backend", "store:\n  backend: \"redis\"\n"},
		{"postgres without dsn", "store:\n  backend: \"postgres\"\n"},
		{"bad charger status", "chargers:\n  - id: \"c1\"\n    cost_per_kwh: 12\n    status: \"Broken\"\n"},
		{"charger without id", "chargers:\n  - cost_per_kwh: 12\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.data)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected format error")
	}
}
