package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gamestats/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncResolverOutcome(outcome string)
	ObserveRefreshDuration(duration time.Duration)
	SetLeaderboardSize(count int)
	SetQuarantineSize(count int)
}

// Resolver outcome label values.
const (
	OutcomeStored      = "stored"
	OutcomeFetched     = "fetched"
	OutcomeQuarantined = "quarantined"
	OutcomeSentinel    = "sentinel"
)

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	resolverTotal   *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	leaderboardSize prometheus.Gauge
	quarantineSize  prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncResolverOutcome(outcome string) {
	m.resolverTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) ObserveRefreshDuration(duration time.Duration) {
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetLeaderboardSize(count int) {
	m.leaderboardSize.Set(float64(count))
}

func (m *MetricsProvider) SetQuarantineSize(count int) {
	m.quarantineSize.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gamestats_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gamestats_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gamestats_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gamestats_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		resolverTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gamestats_resolver_total",
			Help: "Metadata resolutions by outcome",
		}, []string{"outcome"}),

		refreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamestats_refresh_duration_seconds",
			Help:    "History refresh duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		leaderboardSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gamestats_leaderboard_size",
			Help: "Number of entries in the last computed leaderboard",
		}),

		quarantineSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gamestats_quarantine_size",
			Help: "Number of quarantined appids",
		}),
	}
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncResolverOutcome(_ string)                      {}
func (n *noopMetrics) ObserveRefreshDuration(_ time.Duration)           {}
func (n *noopMetrics) SetLeaderboardSize(_ int)                         {}
func (n *noopMetrics) SetQuarantineSize(_ int)                          {}
