package steam

import (
	"context"
	"fmt"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/structures"
)

const defaultHistoryURL = "https://steamcharts.com/app/%d/chart-data.json"

// HistoryClientInterface is the per-title player-count time-series feed.
type HistoryClientInterface interface {
	// FetchHistory returns the title's (timestamp, count) series ordered
	// by timestamp, or ErrNotFound when the title is not charted.
	FetchHistory(ctx context.Context, appid int) ([]models.PlayerCountSample, error)
}

type HistoryClient struct {
	api     *apiClient
	baseURL string
}

func NewHistoryClient(conf *structures.Config, logger providers.Logger) HistoryClientInterface {
	return &HistoryClient{
		api:     newAPIClient("steam-history", conf, logger),
		baseURL: defaultHistoryURL,
	}
}

func (c *HistoryClient) FetchHistory(ctx context.Context, appid int) ([]models.PlayerCountSample, error) {
	u := fmt.Sprintf(c.baseURL, appid)

	// Wire format: [[timestamp_ms, count], ...]
	var raw [][]float64
	if err := c.api.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	samples := make([]models.PlayerCountSample, 0, len(raw))
	for _, point := range raw {
		if len(point) != 2 || point[1] < 0 {
			continue
		}
		samples = append(samples, models.PlayerCountSample{
			Timestamp: int64(point[0]),
			Count:     int(point[1]),
		})
	}
	return samples, nil
}
