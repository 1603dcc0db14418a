// Package config loads the service configuration from a YAML or JSON file
// with EV_-prefixed environment overrides (EV_HTTP__PORT=9000 sets
// http.port).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/infra/monitoring"
	"github.com/smartev/scheduler/infra/mqtt"
)

type Config struct {
	HTTP      HTTPConfig        `json:"http"`
	Store     StoreConfig       `json:"store"`
	Signal    SignalConfig      `json:"signal"`
	Metrics   MetricsConfig     `json:"metrics"`
	Sentry    monitoring.Config `json:"sentry"`
	MQTT      MQTTConfig        `json:"mqtt"`
	Optimizer OptimizerConfig   `json:"optimizer"`
	Chargers  []ChargerSeed     `json:"chargers"`
}

// Load reads the config file and applies environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("EV_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ev_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Signal.SetDefaults()
	cfg.Optimizer.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	for _, seed := range c.Chargers {
		if _, err := seed.Charger(); err != nil {
			return err
		}
	}
	return nil
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
}

// StoreConfig selects the booking store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite" or "postgres".
	Backend string `json:"backend"`
	// Path is the SQLite file location.
	Path string `json:"path"`
	// DSN is the Postgres connection string.
	DSN string `json:"dsn"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "bookings.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("store: postgres backend requires dsn")
		}
	default:
		return fmt.Errorf("store: unknown backend %s", c.Backend)
	}
	return nil
}

// SignalConfig selects the solar/cost signal provider by plugin name.
type SignalConfig struct {
	// Provider is a registered plugin name: "neutral", "static" or "metno".
	Provider string `json:"provider"`
	// Conf is passed verbatim to the provider factory.
	Conf map[string]any `json:"conf"`
}

func (c *SignalConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "neutral"
	}
}

// MetricsConfig configures the sinks.
type MetricsConfig struct {
	// PrometheusPort exposes /metrics when non-zero.
	PrometheusPort int `json:"prometheus_port"`
	// Influx enables the InfluxDB sink when URL is set.
	Influx InfluxConfig `json:"influx"`
}

type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// MQTTConfig enables the charger status feed. The connection fields are
// spelled out rather than embedded: koanf's unmarshal does not flatten
// embedded structs, so embedding mqtt.Config would drop them.
type MQTTConfig struct {
	Enabled    bool   `json:"enabled"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	QoS        byte   `json:"qos"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
}

// Feed converts the section to the status feed configuration.
func (c MQTTConfig) Feed() mqtt.Config {
	return mqtt.Config{
		Broker:     c.Broker,
		ClientID:   c.ClientID,
		Username:   c.Username,
		Password:   c.Password,
		QoS:        c.QoS,
		UseTLS:     c.UseTLS,
		ClientCert: c.ClientCert,
		ClientKey:  c.ClientKey,
		CABundle:   c.CABundle,
	}
}

// OptimizerConfig tunes the slot search.
type OptimizerConfig struct {
	// TopN caps the number of returned slots.
	TopN int `json:"top_n"`
}

func (c *OptimizerConfig) SetDefaults() {
	if c.TopN == 0 {
		c.TopN = 3
	}
}

func (c OptimizerConfig) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("optimizer: top_n must be positive")
	}
	return nil
}

// ChargerSeed is a charger definition from configuration.
type ChargerSeed struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	CostPerKWh     float64 `json:"cost_per_kwh"`
	ChargingRateKW float64 `json:"charging_rate_kw"`
	Status         string  `json:"status"`
}

// Charger converts the seed to a validated model.Charger. An empty status
// means Available; a zero rate means the default 7 kW.
func (s ChargerSeed) Charger() (model.Charger, error) {
	status := model.ChargerAvailable
	if s.Status != "" {
		var err error
		status, err = model.ParseChargerStatus(s.Status)
		if err != nil {
			return model.Charger{}, fmt.Errorf("charger %s: %w", s.ID, err)
		}
	}
	rate := s.ChargingRateKW
	if rate == 0 {
		rate = 7
	}
	c := model.Charger{
		ID:             s.ID,
		Name:           s.Name,
		Location:       model.Location{Lat: s.Lat, Lng: s.Lng},
		CostPerKWh:     s.CostPerKWh,
		Status:         status,
		ChargingRateKW: rate,
	}
	if err := c.Validate(); err != nil {
		return model.Charger{}, fmt.Errorf("charger %s: %w", s.ID, err)
	}
	return c, nil
}
