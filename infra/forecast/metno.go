package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smartev/scheduler/core/events"
	"github.com/smartev/scheduler/core/logger"
	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/internal/eventbus"
)

const (
	defaultBaseURL = "https://api.met.no/weatherapi/locationforecast/2.0/compact"
	userAgent      = "SmartEVScheduler/1.0 github.com/smartev"
	cacheTTL       = 30 * time.Minute
)

// metnoResponse mirrors the subset of the locationforecast compact payload
// the client needs.
type metnoResponse struct {
	Properties struct {
		Timeseries []struct {
			Time string `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						CloudAreaFraction float64 `json:"cloud_area_fraction"`
						AirTemperature    float64 `json:"air_temperature"`
					} `json:"details"`
				} `json:"instant"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

// observation is one hourly weather sample keyed by UTC hour.
type observation struct {
	cloudCover float64
	tempC      float64
}

// Client fetches weather from the Met.no locationforecast API and caches it
// per rounded location. Safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	log     logger.Logger
	bus     eventbus.Bus
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	byTime  map[time.Time]observation
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Met.no endpoint, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithBus publishes a ForecastFetchEvent after every upstream fetch.
func WithBus(bus eventbus.Bus) ClientOption {
	return func(c *Client) { c.bus = bus }
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient builds a Met.no client. A nil log falls back to a no-op logger.
func NewClient(log logger.Logger, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.NopLogger{}
	}
	c := &Client{
		http:    resty.New().SetTimeout(10*time.Second).SetHeader("User-Agent", userAgent),
		baseURL: defaultBaseURL,
		log:     log,
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observations returns hourly weather keyed by UTC time for a location,
// fetching from Met.no on cache miss.
func (c *Client) Observations(ctx context.Context, loc model.Location) (map[time.Time]observation, error) {
	key := fmt.Sprintf("%.2f,%.2f", loc.Lat, loc.Lng)

	c.mu.Lock()
	if e, ok := c.cache[key]; ok && c.now().Sub(e.fetched) < cacheTTL {
		c.mu.Unlock()
		return e.byTime, nil
	}
	c.mu.Unlock()

	started := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat": fmt.Sprintf("%.4f", loc.Lat),
			"lon": fmt.Sprintf("%.4f", loc.Lng),
		}).
		Get(c.baseURL)
	if err != nil {
		c.publishFetch(key, 0, true, time.Since(started))
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	if res.StatusCode() != 200 {
		c.publishFetch(key, 0, true, time.Since(started))
		return nil, fmt.Errorf("fetch weather: unexpected status %d", res.StatusCode())
	}

	var payload metnoResponse
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		c.publishFetch(key, 0, true, time.Since(started))
		return nil, fmt.Errorf("decode weather: %w", err)
	}

	byTime := make(map[time.Time]observation, len(payload.Properties.Timeseries))
	for _, ts := range payload.Properties.Timeseries {
		t, err := time.Parse(time.RFC3339, ts.Time)
		if err != nil {
			continue
		}
		d := ts.Data.Instant.Details
		byTime[t.UTC().Truncate(time.Hour)] = observation{
			cloudCover: d.CloudAreaFraction,
			tempC:      d.AirTemperature,
		}
	}
	if len(byTime) == 0 {
		c.publishFetch(key, 0, true, time.Since(started))
		return nil, fmt.Errorf("decode weather: empty timeseries")
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{fetched: c.now(), byTime: byTime}
	c.mu.Unlock()

	c.publishFetch(key, len(byTime), false, time.Since(started))
	c.log.Debugw("weather fetched", map[string]interface{}{
		"location": key,
		"points":   len(byTime),
	})
	return byTime, nil
}

func (c *Client) publishFetch(key string, points int, failed bool, latency time.Duration) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.ForecastFetchEvent{
		Location: key,
		Points:   points,
		Failed:   failed,
		Latency:  latency,
		Time:     time.Now(),
	})
}
