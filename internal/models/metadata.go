package models

import "strings"

// FieldDelimiter joins multi-value metadata fields for storage.
const FieldDelimiter = ", "

// UnknownName marks a degraded metadata record for a title whose
// details could not be fetched.
const UnknownName = "Unknown"

// GameMetadata is the resolved, API-facing form of a title's metadata.
// Multi-value fields are split into slices.
type GameMetadata struct {
	AppID            int      `json:"appid"`
	Name             string   `json:"name"`
	HeaderImage      string   `json:"header_image"`
	ShortDescription string   `json:"short_description"`
	Developers       string   `json:"developers"`
	Publishers       string   `json:"publishers"`
	ReleaseDate      string   `json:"release_date"`
	Platforms        []string `json:"platforms"`
	Price            string   `json:"price"`
	Categories       []string `json:"categories"`
	Genres           []string `json:"genres"`
	Website          string   `json:"website"`
	Screenshots      []string `json:"screenshots"`
	Background       string   `json:"background"`
}

// MetadataRow is the stored form of a title's metadata. Multi-value
// fields are kept as single delimited strings, matching the table layout.
type MetadataRow struct {
	AppID            int    `json:"appid"`
	Name             string `json:"name"`
	HeaderImage      string `json:"header_image"`
	ShortDescription string `json:"short_description"`
	Developers       string `json:"developers"`
	Publishers       string `json:"publishers"`
	ReleaseDate      string `json:"release_date"`
	Platforms        string `json:"platforms"`
	Price            string `json:"price"`
	Categories       string `json:"categories"`
	Genres           string `json:"genres"`
	Website          string `json:"website"`
	Screenshots      string `json:"screenshots"`
	Background       string `json:"background"`
}

func splitField(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, FieldDelimiter)
}

func joinField(vals []string) string {
	return strings.Join(vals, FieldDelimiter)
}

// ToGame splits the delimited multi-value fields into slices.
func (r *MetadataRow) ToGame() *GameMetadata {
	return &GameMetadata{
		AppID:            r.AppID,
		Name:             r.Name,
		HeaderImage:      r.HeaderImage,
		ShortDescription: r.ShortDescription,
		Developers:       r.Developers,
		Publishers:       r.Publishers,
		ReleaseDate:      r.ReleaseDate,
		Platforms:        splitField(r.Platforms),
		Price:            r.Price,
		Categories:       splitField(r.Categories),
		Genres:           splitField(r.Genres),
		Website:          r.Website,
		Screenshots:      splitField(r.Screenshots),
		Background:       r.Background,
	}
}

// ToRow joins the multi-value fields with the storage delimiter.
func (g *GameMetadata) ToRow() *MetadataRow {
	return &MetadataRow{
		AppID:            g.AppID,
		Name:             g.Name,
		HeaderImage:      g.HeaderImage,
		ShortDescription: g.ShortDescription,
		Developers:       g.Developers,
		Publishers:       g.Publishers,
		ReleaseDate:      g.ReleaseDate,
		Platforms:        joinField(g.Platforms),
		Price:            g.Price,
		Categories:       joinField(g.Categories),
		Genres:           joinField(g.Genres),
		Website:          g.Website,
		Screenshots:      joinField(g.Screenshots),
		Background:       g.Background,
	}
}

// SentinelMetadata is the degraded record returned for quarantined or
// unresolvable titles. Callers must treat it as valid but unenriched.
func SentinelMetadata(appid int) *GameMetadata {
	return &GameMetadata{
		AppID:       appid,
		Name:        UnknownName,
		HeaderImage: "",
		Platforms:   []string{},
		Categories:  []string{},
		Genres:      []string{},
		Screenshots: []string{},
	}
}

// Sentinel reports whether the record is the degraded placeholder.
func (g *GameMetadata) Sentinel() bool {
	return g.Name == UnknownName && g.HeaderImage == ""
}
