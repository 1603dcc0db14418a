package forecast

import (
	"context"
	"time"

	"github.com/smartev/scheduler/core/model"
	"github.com/smartev/scheduler/core/signal"
)

// Provider implements signal.Provider on top of the Met.no client and the
// solar efficiency model.
type Provider struct {
	client *Client
}

// NewProvider wraps a Met.no client as a signal provider.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

// Forecast implements signal.Provider. Hours past the end of the Met.no
// timeseries fall back to default weather rather than failing the call.
func (p *Provider) Forecast(ctx context.Context, loc model.Location, from time.Time, hours int) ([]signal.Point, error) {
	obs, err := p.client.Observations(ctx, loc)
	if err != nil {
		return nil, err
	}
	pts := make([]signal.Point, 0, hours)
	cur := from.UTC().Truncate(time.Hour)
	for i := 0; i < hours; i++ {
		h := cur.Add(time.Duration(i) * time.Hour)
		cloud := defaultCloudCover
		if o, ok := obs[h]; ok {
			cloud = o.cloudCover
		}
		pts = append(pts, signal.Point{
			Hour:       h,
			Efficiency: efficiency(h.Hour(), cloud),
			CostFactor: costFactor(h.Hour()),
		})
	}
	return pts, nil
}

// Entries returns the rich hourly forecast served over the API, starting at
// the next full hour.
func (p *Provider) Entries(ctx context.Context, loc model.Location, hours int) ([]Entry, error) {
	obs, err := p.client.Observations(ctx, loc)
	if err != nil {
		return nil, err
	}
	now := p.client.now().UTC()
	cur := now.Truncate(time.Hour).Add(time.Hour)
	entries := make([]Entry, 0, hours)
	for i := 0; i < hours; i++ {
		h := cur.Add(time.Duration(i) * time.Hour)
		cloud, temp := defaultCloudCover, defaultTempC
		if o, ok := obs[h]; ok {
			cloud, temp = o.cloudCover, o.tempC
		}
		entries = append(entries, entryFor(h, now, cloud, temp))
	}
	return entries, nil
}
