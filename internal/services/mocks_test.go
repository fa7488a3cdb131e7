package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gamestats/internal/models"
	"gamestats/internal/providers"
)

// --- shared mocks for the service tests ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type mockMetrics struct {
	mu               sync.Mutex
	resolverOutcomes []string
	leaderboardSizes []int
	refreshDurations []time.Duration
}

func (m *mockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *mockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *mockMetrics) IncCacheHits()                                    {}
func (m *mockMetrics) IncCacheMisses()                                  {}
func (m *mockMetrics) IncResolverOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolverOutcomes = append(m.resolverOutcomes, outcome)
}
func (m *mockMetrics) ObserveRefreshDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshDurations = append(m.refreshDurations, d)
}
func (m *mockMetrics) SetLeaderboardSize(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderboardSizes = append(m.leaderboardSizes, count)
}
func (m *mockMetrics) SetQuarantineSize(_ int) {}

// mockStore is an in-memory StoreInterface with controllable failures.
type mockStore struct {
	mu          sync.Mutex
	metadata    map[int]*models.MetadataRow
	history     map[int]*models.HistoryRecord
	quarantined map[int]struct{}

	lockHeld       bool
	lastUpdateTime time.Time

	metadataErr error
	historyErr  error
	replaceErr  error

	putCalls     []int
	replaceCalls [][]*models.HistoryRecord
	releaseCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		metadata:    make(map[int]*models.MetadataRow),
		history:     make(map[int]*models.HistoryRecord),
		quarantined: make(map[int]struct{}),
	}
}

func (m *mockStore) GetMetadata(appid int) (*models.MetadataRow, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metadataErr != nil {
		return nil, false, m.metadataErr
	}
	row, ok := m.metadata[appid]
	return row, ok, nil
}

func (m *mockStore) PutMetadata(row *models.MetadataRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[row.AppID] = row
	m.putCalls = append(m.putCalls, row.AppID)
	return nil
}

func (m *mockStore) GetAllMetadata() ([]*models.MetadataRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metadataErr != nil {
		return nil, m.metadataErr
	}
	rows := make([]*models.MetadataRow, 0, len(m.metadata))
	for _, appid := range sortedKeys(m.metadata) {
		rows = append(rows, m.metadata[appid])
	}
	return rows, nil
}

func (m *mockStore) GetAllKnownTitles() ([]models.KnownTitle, error) {
	rows, err := m.GetAllMetadata()
	if err != nil {
		return nil, err
	}
	titles := make([]models.KnownTitle, 0, len(rows))
	for _, row := range rows {
		titles = append(titles, models.KnownTitle{AppID: row.AppID, Name: row.Name})
	}
	return titles, nil
}

func (m *mockStore) GetHistory(appid int) (*models.HistoryRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return nil, false, m.historyErr
	}
	rec, ok := m.history[appid]
	return rec, ok, nil
}

func (m *mockStore) GetLatestSample(appid int) (models.PlayerCountSample, bool, error) {
	rec, ok, err := m.GetHistory(appid)
	if err != nil || !ok {
		return models.PlayerCountSample{}, false, err
	}
	sample, ok := rec.Latest()
	return sample, ok, nil
}

func (m *mockStore) GetAllHistory() ([]*models.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	records := make([]*models.HistoryRecord, 0, len(m.history))
	for _, appid := range sortedKeys(m.history) {
		records = append(records, m.history[appid])
	}
	return records, nil
}

func (m *mockStore) ReplaceHistory(records []*models.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.history = make(map[int]*models.HistoryRecord, len(records))
	for _, rec := range records {
		m.history[rec.AppID] = rec
	}
	m.replaceCalls = append(m.replaceCalls, records)
	return nil
}

func (m *mockStore) IsQuarantined(appid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.quarantined[appid]
	return ok
}

func (m *mockStore) Quarantine(appid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quarantined[appid] = struct{}{}
	return nil
}

func (m *mockStore) QuarantineSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quarantined)
}

func (m *mockStore) AcquireUpdateLock(cooldown time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockHeld || time.Since(m.lastUpdateTime) <= cooldown {
		return false
	}
	m.lockHeld = true
	return true
}

func (m *mockStore) ReleaseUpdateLock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockHeld = false
	m.lastUpdateTime = time.Now()
	m.releaseCalls++
	return nil
}

func (m *mockStore) Close() error { return nil }

var errNotFoundForTest = errors.New("title not found")

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// mockDetailsClient answers from a canned map and counts fetches.
type mockDetailsClient struct {
	mu      sync.Mutex
	games   map[int]*models.GameMetadata
	err     error
	fetched []int
}

func (m *mockDetailsClient) FetchDetails(_ context.Context, appid int) (*models.GameMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, appid)
	if m.err != nil {
		return nil, m.err
	}
	if md, ok := m.games[appid]; ok {
		return md, nil
	}
	return nil, errNotFoundForTest
}

// mockResolver implements ResolverServiceInterface without a store:
// unknown appids answer with the sentinel, like the real resolver.
type mockResolver struct {
	mu         sync.Mutex
	games      map[int]*models.GameMetadata
	err        error
	resolveErr error
	resolved   []int
}

func (m *mockResolver) Resolve(_ context.Context, appid int) (*models.GameMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, appid)
	if m.err != nil {
		return nil, m.err
	}
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	if md, ok := m.games[appid]; ok {
		return md, nil
	}
	return models.SentinelMetadata(appid), nil
}

func (m *mockResolver) ResolveAll() ([]*models.GameMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	games := make([]*models.GameMetadata, 0, len(m.games))
	for _, appid := range sortedKeys(m.games) {
		games = append(games, m.games[appid])
	}
	return games, nil
}

type mockChartsClient struct {
	mu    sync.Mutex
	chart *models.TopChart
	err   error
	calls int
}

func (m *mockChartsClient) FetchTopChart(_ context.Context) (*models.TopChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chart, nil
}

type mockHistoryClient struct {
	mu      sync.Mutex
	series  map[int][]models.PlayerCountSample
	failing map[int]error
	fetched []int
}

func (m *mockHistoryClient) FetchHistory(_ context.Context, appid int) ([]models.PlayerCountSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, appid)
	if err, ok := m.failing[appid]; ok {
		return nil, err
	}
	return m.series[appid], nil
}
