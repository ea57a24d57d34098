package session

import (
	"context"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcache"
)

// CacheChartSource resolves a room's chart through the on-disk chart
// cache, satisfying the Dispatcher's ChartSource dependency.
type CacheChartSource struct {
	Cache *chartcache.Cache
}

// Resolve fetches (and installs, if necessary) room.ChartID, then decodes
// it into the in-memory chart.Chart/chart.Info pair a Scene needs.
func (s CacheChartSource) Resolve(ctx context.Context, room RoomState) (*chart.Chart, *chart.Info, error) {
	if room.ChartID == "" {
		return nil, nil, nil
	}
	if _, err := s.Cache.Get(ctx, room.ChartID); err != nil {
		return nil, nil, err
	}
	info, ch, err := s.Cache.Load(room.ChartID)
	if err != nil {
		return nil, nil, err
	}
	return ch, info, nil
}
