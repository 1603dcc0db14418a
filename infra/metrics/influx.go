package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/infra/logger"
)

// InfluxSink writes scheduler events to an InfluxDB bucket using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing Influx never blocks
// the service.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOptimization writes one optimize pass as a point.
func (s *InfluxSink) RecordOptimization(rec coremetrics.OptimizationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimize_request").
		AddTag("priority", rec.Priority.String()).
		AddTag("charger_id", rec.ChargerID).
		AddTag("infeasible", boolTag(rec.Infeasible)).
		AddTag("degraded", boolTag(rec.Degraded)).
		AddField("slots", rec.Slots).
		AddField("elapsed_ms", round3(rec.Elapsed.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBooking writes one reservation outcome.
func (s *InfluxSink) RecordBooking(rec coremetrics.BookingRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("booking_event").
		AddTag("charger_id", rec.ChargerID).
		AddTag("outcome", rec.Outcome).
		AddField("energy_kwh", round3(rec.EnergyKWh)).
		AddField("total_cost", round3(rec.TotalCost)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordForecastFetch writes one upstream weather fetch.
func (s *InfluxSink) RecordForecastFetch(rec coremetrics.ForecastFetch) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_fetch").
		AddTag("location", rec.Location).
		AddTag("failed", boolTag(rec.Failed)).
		AddField("points", rec.Points).
		AddField("latency_ms", round3(rec.Latency.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
