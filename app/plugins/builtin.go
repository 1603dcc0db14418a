package plugins

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/smartev/scheduler/core/signal"
	"github.com/smartev/scheduler/infra/forecast"
	"github.com/smartev/scheduler/infra/logger"
	"github.com/smartev/scheduler/internal/eventbus"
)

func init() {
	RegisterSignal("neutral", func(string, map[string]any, eventbus.Bus) (signal.Provider, error) {
		return signal.Neutral(), nil
	})

	RegisterSignal("static", func(name string, conf map[string]any, _ eventbus.Bus) (signal.Provider, error) {
		var sc struct {
			ByHour     map[int]float64 `mapstructure:"by_hour"`
			CostFactor float64         `mapstructure:"cost_factor"`
		}
		if err := decode(conf, &sc); err != nil {
			return nil, err
		}
		return signal.Static{ByHour: sc.ByHour, CostFactor: sc.CostFactor}, nil
	})

	RegisterSignal("metno", func(name string, conf map[string]any, bus eventbus.Bus) (signal.Provider, error) {
		var mc struct {
			BaseURL string `mapstructure:"base_url"`
		}
		if err := decode(conf, &mc); err != nil {
			return nil, err
		}
		var opts []forecast.ClientOption
		if mc.BaseURL != "" {
			opts = append(opts, forecast.WithBaseURL(mc.BaseURL))
		}
		if bus != nil {
			opts = append(opts, forecast.WithBus(bus))
		}
		return forecast.NewProvider(forecast.NewClient(logger.New("forecast"), opts...)), nil
	})
}

// decode is weakly typed so YAML map keys like "10" land in int-keyed maps.
func decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(conf)
}
