package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"gamestats/internal/providers"
	"gamestats/internal/structures"
)

// ErrNotFound means the upstream answered but has no data for the title.
// It is a valid upstream answer, not a transport failure.
var ErrNotFound = errors.New("title not found upstream")

// apiClient is the shared transport for the Steam feeds: one http.Client
// with a bounded timeout behind a circuit breaker. There is no retry
// anywhere; an open breaker degrades exactly like a failed fetch.
type apiClient struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  providers.Logger
}

func newAPIClient(name string, conf *structures.Config, logger providers.Logger) *apiClient {
	return &apiClient{
		http: &http.Client{Timeout: conf.Steam.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Timeout:     30 * time.Second,
			// A clean "no such title" answer must not trip the breaker.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
		}),
		logger: logger,
	}
}

func (c *apiClient) getJSON(ctx context.Context, url string, into any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, into)
}
