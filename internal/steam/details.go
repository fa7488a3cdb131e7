package steam

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/structures"
)

const defaultDetailsURL = "https://store.steampowered.com/api/appdetails"

// DetailsClientInterface is the per-title metadata feed.
type DetailsClientInterface interface {
	// FetchDetails returns the title's metadata or ErrNotFound when the
	// store has no page for the appid.
	FetchDetails(ctx context.Context, appid int) (*models.GameMetadata, error)
}

type DetailsClient struct {
	api     *apiClient
	baseURL string
}

func NewDetailsClient(conf *structures.Config, logger providers.Logger) DetailsClientInterface {
	return &DetailsClient{
		api:     newAPIClient("steam-details", conf, logger),
		baseURL: defaultDetailsURL,
	}
}

type appDetailsPayload struct {
	Success bool           `json:"success"`
	Data    appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name             string   `json:"name"`
	HeaderImage      string   `json:"header_image"`
	ShortDescription string   `json:"short_description"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	ReleaseDate      struct {
		Date string `json:"date"`
	} `json:"release_date"`
	Platforms struct {
		Windows bool `json:"windows"`
		Mac     bool `json:"mac"`
		Linux   bool `json:"linux"`
	} `json:"platforms"`
	PriceOverview struct {
		FinalFormatted string `json:"final_formatted"`
	} `json:"price_overview"`
	IsFree      bool              `json:"is_free"`
	Categories  []descriptionItem `json:"categories"`
	Genres      []descriptionItem `json:"genres"`
	Website     string            `json:"website"`
	Screenshots []screenshotItem  `json:"screenshots"`
	Background  string            `json:"background"`
}

type descriptionItem struct {
	Description string `json:"description"`
}

type screenshotItem struct {
	PathFull string `json:"path_full"`
}

func (c *DetailsClient) FetchDetails(ctx context.Context, appid int) (*models.GameMetadata, error) {
	u := fmt.Sprintf("%s?appids=%d", c.baseURL, appid)

	payload := make(map[string]appDetailsPayload)
	if err := c.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	entry, ok := payload[strconv.Itoa(appid)]
	if !ok || !entry.Success {
		return nil, ErrNotFound
	}
	return entry.Data.toMetadata(appid), nil
}

func (d *appDetailsData) toMetadata(appid int) *models.GameMetadata {
	platforms := make([]string, 0, 3)
	if d.Platforms.Windows {
		platforms = append(platforms, "windows")
	}
	if d.Platforms.Mac {
		platforms = append(platforms, "mac")
	}
	if d.Platforms.Linux {
		platforms = append(platforms, "linux")
	}

	price := d.PriceOverview.FinalFormatted
	if d.IsFree {
		price = "Free"
	}

	return &models.GameMetadata{
		AppID:            appid,
		Name:             d.Name,
		HeaderImage:      d.HeaderImage,
		ShortDescription: d.ShortDescription,
		Developers:       strings.Join(d.Developers, models.FieldDelimiter),
		Publishers:       strings.Join(d.Publishers, models.FieldDelimiter),
		ReleaseDate:      d.ReleaseDate.Date,
		Platforms:        platforms,
		Price:            price,
		Categories:       descriptions(d.Categories),
		Genres:           descriptions(d.Genres),
		Website:          d.Website,
		Screenshots:      screenshotURLs(d.Screenshots),
		Background:       d.Background,
	}
}

func descriptions(items []descriptionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Description)
	}
	return out
}

func screenshotURLs(shots []screenshotItem) []string {
	out := make([]string, 0, len(shots))
	for _, s := range shots {
		out = append(out, s.PathFull)
	}
	return out
}
