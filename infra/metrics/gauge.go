package metrics

import (
	"context"
	"time"

	"github.com/smartev/scheduler/core/charger"
	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/core/model"
)

var chargerStatuses = []model.ChargerStatus{
	model.ChargerAvailable,
	model.ChargerOccupied,
	model.ChargerOffline,
}

// RecordChargerCounts pushes the registry's per-status charger counts to the
// sink. Every status is recorded, including zero, so gauges fall back when a
// status empties out.
func RecordChargerCounts(ctx context.Context, reg charger.Registry, sink coremetrics.Sink) error {
	r, ok := sink.(coremetrics.ChargerGaugeRecorder)
	if !ok {
		return nil
	}
	chargers, err := reg.List(ctx)
	if err != nil {
		return err
	}
	counts := make(map[model.ChargerStatus]int, len(chargerStatuses))
	for _, c := range chargers {
		counts[c.Status]++
	}
	for _, s := range chargerStatuses {
		if err := r.RecordChargerCount(s, counts[s]); err != nil {
			return err
		}
	}
	return nil
}

// StartChargerGauge keeps the charger gauge aligned with the registry. It
// records immediately, then on every interval until the context is canceled.
func StartChargerGauge(ctx context.Context, reg charger.Registry, sink coremetrics.Sink, interval time.Duration) {
	if reg == nil || sink == nil {
		return
	}
	if _, ok := sink.(coremetrics.ChargerGaugeRecorder); !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			_ = RecordChargerCounts(ctx, reg, sink)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
