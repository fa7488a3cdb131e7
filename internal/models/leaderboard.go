package models

// ChartEntry is one row of the live most-played chart, in feed order.
type ChartEntry struct {
	Rank             int `json:"rank"`
	AppID            int `json:"appid"`
	ConcurrentInGame int `json:"concurrent_in_game"`
	PeakInGame       int `json:"peak_in_game"`
}

// TopChart is the live feed result. LastUpdate is the feed-reported
// timestamp in epoch seconds.
type TopChart struct {
	LastUpdate int64        `json:"last_update"`
	Entries    []ChartEntry `json:"ranks"`
}

// LeaderboardEntry is one row of the merged leaderboard. Rank is dense,
// 1-based and assigned at merge time; it is never persisted.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	AppID            int    `json:"appid"`
	ConcurrentInGame int    `json:"concurrent_in_game"`
	Name             string `json:"name"`
	HeaderImage      string `json:"header_image"`
}
