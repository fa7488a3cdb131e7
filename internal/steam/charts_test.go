package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTopChart_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"last_update":1700000000,"ranks":[
			{"rank":1,"appid":730,"concurrent_in_game":900000,"peak_in_game":1400000},
			{"rank":2,"appid":570,"concurrent_in_game":400000,"peak_in_game":700000}
		]}}`))
	}))
	defer srv.Close()

	c := &ChartsClient{api: newTestAPIClient("charts"), baseURL: srv.URL}
	chart, err := c.FetchTopChart(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), chart.LastUpdate)
	require.Len(t, chart.Entries, 2)
	assert.Equal(t, 730, chart.Entries[0].AppID)
	assert.Equal(t, 900000, chart.Entries[0].ConcurrentInGame)
	assert.Equal(t, 2, chart.Entries[1].Rank)
}

func TestFetchTopChart_SendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"response":{"ranks":[]}}`))
	}))
	defer srv.Close()

	c := &ChartsClient{api: newTestAPIClient("charts-key"), baseURL: srv.URL, apiKey: "secret"}
	_, err := c.FetchTopChart(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestFetchTopChart_UpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &ChartsClient{api: newTestAPIClient("charts-err"), baseURL: srv.URL}
	_, err := c.FetchTopChart(context.Background())

	assert.Error(t, err)
}
