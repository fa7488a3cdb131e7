package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerCountSample is a single point of a title's player-count series.
// Timestamp is epoch milliseconds.
type PlayerCountSample struct {
	Timestamp int64 `json:"timestamp"`
	Count     int   `json:"count"`
}

// HistoryRecord is one title's stored player-count series. The series is
// encoded as "<ts> <count>, <ts> <count>, ..." ordered by timestamp,
// matching the history table layout.
type HistoryRecord struct {
	AppID            int    `json:"appid"`
	Name             string `json:"name"`
	DatePlayersCount string `json:"date_playerscount"`
}

// JoinSamples encodes an ordered sample sequence into the stored form.
func JoinSamples(samples []PlayerCountSample) string {
	parts := make([]string, 0, len(samples))
	for _, s := range samples {
		parts = append(parts, fmt.Sprintf("%d %d", s.Timestamp, s.Count))
	}
	return strings.Join(parts, FieldDelimiter)
}

// Samples decodes the stored series. Malformed entries are skipped.
func (h *HistoryRecord) Samples() []PlayerCountSample {
	if h.DatePlayersCount == "" {
		return nil
	}
	parts := strings.Split(h.DatePlayersCount, FieldDelimiter)
	samples := make([]PlayerCountSample, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(p)
		if len(fields) != 2 {
			continue
		}
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil || count < 0 {
			continue
		}
		samples = append(samples, PlayerCountSample{Timestamp: ts, Count: count})
	}
	return samples
}

// Latest returns the newest sample of the series, if any. The series is
// stored in timestamp order, so the last entry wins.
func (h *HistoryRecord) Latest() (PlayerCountSample, bool) {
	samples := h.Samples()
	if len(samples) == 0 {
		return PlayerCountSample{}, false
	}
	return samples[len(samples)-1], true
}

// KnownTitle is the (appid, name) pair tracked by the metadata table.
type KnownTitle struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}
