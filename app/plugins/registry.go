// Package plugins maps configuration names to component factories so the
// service wiring stays declarative. Builtin factories register themselves
// in init; external builds can add their own before app.New runs.
package plugins

import (
	"github.com/smartev/scheduler/core/signal"
	"github.com/smartev/scheduler/internal/eventbus"
)

// SignalFactory builds a signal provider from a raw configuration map. The
// bus may be nil; providers that report fetch metrics publish on it.
type SignalFactory func(name string, conf map[string]any, bus eventbus.Bus) (signal.Provider, error)

var Signals = map[string]SignalFactory{}

func RegisterSignal(name string, f SignalFactory) { Signals[name] = f }
