// Package app wires the configuration into a running service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/smartev/scheduler/api"
	"github.com/smartev/scheduler/app/plugins"
	"github.com/smartev/scheduler/config"
	"github.com/smartev/scheduler/core/availability"
	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/charger"
	coremetrics "github.com/smartev/scheduler/core/metrics"
	"github.com/smartev/scheduler/core/model"
	coremon "github.com/smartev/scheduler/core/monitoring"
	"github.com/smartev/scheduler/core/optimizer"
	"github.com/smartev/scheduler/infra/logger"
	"github.com/smartev/scheduler/infra/metrics"
	"github.com/smartev/scheduler/infra/monitoring"
	"github.com/smartev/scheduler/infra/mqtt"
	"github.com/smartev/scheduler/infra/store"
	"github.com/smartev/scheduler/internal/eventbus"
)

// Service holds the wired components and owns their lifecycle.
type Service struct {
	Optimizer *optimizer.Optimizer
	Registry  charger.Registry
	Store     booking.Store

	handler  *api.Handler
	bus      eventbus.Bus
	feed     *mqtt.StatusFeed
	sink     coremetrics.Sink
	httpPort int
	origins  []string
	promPort int
	log      logger.Logger
}

// New builds a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	seeds := make([]model.Charger, 0, len(cfg.Chargers))
	for _, s := range cfg.Chargers {
		c, err := s.Charger()
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, c)
	}
	registry, err := charger.NewMemoryRegistry(seeds)
	if err != nil {
		return nil, fmt.Errorf("charger registry: %w", err)
	}

	bus := eventbus.New()

	bookings, err := newBookingStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("booking store: %w", err)
	}
	evented := store.NewEventedStore(bookings, bus)

	factory, ok := plugins.Signals[cfg.Signal.Provider]
	if !ok {
		return nil, fmt.Errorf("signal: unknown provider %s", cfg.Signal.Provider)
	}
	provider, err := factory(cfg.Signal.Provider, cfg.Signal.Conf, bus)
	if err != nil {
		return nil, fmt.Errorf("signal provider %s: %w", cfg.Signal.Provider, err)
	}
	// Providers backed by a real forecast also serve the forecast endpoint.
	fc, _ := provider.(api.ForecastSource)

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	opt := optimizer.New(registry, availability.NewIndex(registry, evented), provider,
		logger.New("optimizer"), optimizer.WithTopN(cfg.Optimizer.TopN))

	svc := &Service{
		Optimizer: opt,
		Registry:  registry,
		Store:     evented,
		handler:   api.NewHandler(opt, evented, registry, fc, bus, logger.New("api")),
		bus:       bus,
		httpPort:  cfg.HTTP.Port,
		origins:   cfg.HTTP.AllowedOrigins,
		promPort:  cfg.Metrics.PrometheusPort,
		log:       log,
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusPort != 0 {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.URL != "" {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.Influx.URL, cfg.Metrics.Influx.Token,
			cfg.Metrics.Influx.Org, cfg.Metrics.Influx.Bucket))
	}
	switch len(sinks) {
	case 0:
		svc.sink = coremetrics.NopSink{}
	case 1:
		svc.sink = sinks[0]
	default:
		svc.sink = metrics.NewMultiSink(sinks...)
	}

	if cfg.MQTT.Enabled {
		feed, err := mqtt.NewStatusFeed(cfg.MQTT.Feed(), registry)
		if err != nil {
			return nil, fmt.Errorf("status feed: %w", err)
		}
		svc.feed = feed
	}

	return svc, nil
}

func newBookingStore(cfg config.StoreConfig) (booking.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	case "postgres":
		return store.NewPostgresStore(cfg.DSN)
	default:
		return booking.NewMemoryStore(), nil
	}
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	metrics.StartChargerGauge(ctx, s.Registry, s.sink, 30*time.Second)
	if s.promPort != 0 {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+strconv.Itoa(s.promPort)); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.httpPort),
		Handler: api.Middleware(s.handler.Router(), s.origins),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()

	s.log.Infof("listening on :%d", s.httpPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.feed != nil {
		s.feed.Disconnect()
	}
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return s.Store.Close()
}
