package steam

import (
	"context"
	"net/url"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/structures"
)

const defaultChartsURL = "https://api.steampowered.com/ISteamChartsService/GetMostPlayedGames/v1/"

// ChartsClientInterface is the live top-N ranking feed.
type ChartsClientInterface interface {
	FetchTopChart(ctx context.Context) (*models.TopChart, error)
}

type ChartsClient struct {
	api     *apiClient
	baseURL string
	apiKey  string
}

func NewChartsClient(conf *structures.Config, logger providers.Logger) ChartsClientInterface {
	return &ChartsClient{
		api:     newAPIClient("steam-charts", conf, logger),
		baseURL: defaultChartsURL,
		apiKey:  conf.Steam.APIKey,
	}
}

func (c *ChartsClient) FetchTopChart(ctx context.Context) (*models.TopChart, error) {
	u := c.baseURL
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}

	var payload struct {
		Response models.TopChart `json:"response"`
	}
	if err := c.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return &payload.Response, nil
}
