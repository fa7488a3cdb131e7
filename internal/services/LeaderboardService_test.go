package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamestats/internal/models"
	"gamestats/internal/structures"
)

func leaderboardConf() *structures.Config {
	return &structures.Config{
		Leaderboard: structures.LeaderboardConfig{
			TTL:             time.Hour,
			FreshnessWindow: 24 * time.Hour,
			MaxEntries:      2200,
		},
	}
}

func newTestLeaderboard(conf *structures.Config, store *mockStore, charts *mockChartsClient, resolver *mockResolver, metrics *mockMetrics) LeaderboardServiceInterface {
	return NewLeaderboardService(conf, store, charts, resolver, &mockLogger{}, metrics)
}

func freshSample(count int) string {
	return models.JoinSamples([]models.PlayerCountSample{
		{Timestamp: time.Now().Add(-time.Hour).UnixMilli(), Count: count},
	})
}

func staleSample(count int) string {
	return models.JoinSamples([]models.PlayerCountSample{
		{Timestamp: time.Now().Add(-48 * time.Hour).UnixMilli(), Count: count},
	})
}

// --- merge semantics ---

func TestGetLeaderboard_MergesLiveAndFreshHistory(t *testing.T) {
	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "Team Fortress Classic", DatePlayersCount: freshSample(300)}
	store.history[30] = &models.HistoryRecord{AppID: 30, Name: "Day of Defeat", DatePlayersCount: staleSample(900)}

	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
		20: {AppID: 20, Name: "Team Fortress Classic", HeaderImage: "tfc.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2, "stale title must be excluded")

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 10, entries[0].AppID)
	assert.Equal(t, 500, entries[0].ConcurrentInGame)
	assert.Equal(t, "Counter-Strike", entries[0].Name)
	assert.Equal(t, "cs.jpg", entries[0].HeaderImage)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 20, entries[1].AppID)
	assert.Equal(t, 300, entries[1].ConcurrentInGame)
	assert.Equal(t, "tfc.jpg", entries[1].HeaderImage)
}

func TestGetLeaderboard_LiveRowWinsOverHistory(t *testing.T) {
	store := newMockStore()
	store.history[10] = &models.HistoryRecord{AppID: 10, Name: "Counter-Strike", DatePlayersCount: freshSample(999999)}

	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 500, entries[0].ConcurrentInGame, "live count wins over the history sample")
}

func TestGetLeaderboard_TailSortedByCountDescending(t *testing.T) {
	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "B", DatePlayersCount: freshSample(100)}
	store.history[30] = &models.HistoryRecord{AppID: 30, Name: "C", DatePlayersCount: freshSample(300)}
	store.history[40] = &models.HistoryRecord{AppID: 40, Name: "D", DatePlayersCount: freshSample(200)}

	charts := &mockChartsClient{chart: &models.TopChart{}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		20: {AppID: 20, Name: "B", HeaderImage: "b.jpg"},
		30: {AppID: 30, Name: "C", HeaderImage: "c.jpg"},
		40: {AppID: 40, Name: "D", HeaderImage: "d.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{30, 40, 20}, []int{entries[0].AppID, entries[1].AppID, entries[2].AppID})
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestGetLeaderboard_MaxEntriesCap(t *testing.T) {
	conf := leaderboardConf()
	conf.Leaderboard.MaxEntries = 2

	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "B", DatePlayersCount: freshSample(100)}
	store.history[30] = &models.HistoryRecord{AppID: 30, Name: "C", DatePlayersCount: freshSample(300)}
	store.history[40] = &models.HistoryRecord{AppID: 40, Name: "D", DatePlayersCount: freshSample(200)}

	charts := &mockChartsClient{chart: &models.TopChart{}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		20: {AppID: 20, Name: "B", HeaderImage: "b.jpg"},
		30: {AppID: 30, Name: "C", HeaderImage: "c.jpg"},
		40: {AppID: 40, Name: "D", HeaderImage: "d.jpg"},
	}}

	ls := newTestLeaderboard(conf, store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 30, entries[0].AppID)
	assert.Equal(t, 40, entries[1].AppID)
}

func TestGetLeaderboard_CapCountsOnlyEnrichedEntries(t *testing.T) {
	conf := leaderboardConf()
	conf.Leaderboard.MaxEntries = 2

	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "B", DatePlayersCount: freshSample(100)}
	store.history[30] = &models.HistoryRecord{AppID: 30, Name: "C", DatePlayersCount: freshSample(300)}
	store.history[40] = &models.HistoryRecord{AppID: 40, Name: "D", DatePlayersCount: freshSample(200)}

	charts := &mockChartsClient{chart: &models.TopChart{}}
	// appid 30 is missing from the snapshot and its live resolve fails,
	// so the entry behind it has to move up into the capped output
	resolver := &mockResolver{
		games: map[int]*models.GameMetadata{
			20: {AppID: 20, Name: "B", HeaderImage: "b.jpg"},
			40: {AppID: 40, Name: "D", HeaderImage: "d.jpg"},
		},
		resolveErr: errors.New("details feed down"),
	}

	ls := newTestLeaderboard(conf, store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 40, entries[0].AppID)
	assert.Equal(t, 20, entries[1].AppID)
	assert.Equal(t, []int{1, 2}, []int{entries[0].Rank, entries[1].Rank})
}

func TestGetLeaderboard_UnresolvableTitleKeptAsSentinel(t *testing.T) {
	store := newMockStore()
	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
		{Rank: 2, AppID: 777, ConcurrentInGame: 400},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2, "a sentinel is valid data, not a dropped entry")
	assert.Equal(t, models.UnknownName, entries[1].Name)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGetLeaderboard_ResolverErrorDropsEntryKeepsDenseRanks(t *testing.T) {
	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "B", DatePlayersCount: freshSample(300)}

	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	// the snapshot only covers appid 20; the live fallback resolve for
	// appid 10 errors, so that entry is dropped
	resolver := &mockResolver{
		games:      map[int]*models.GameMetadata{20: {AppID: 20, Name: "B", HeaderImage: "b.jpg"}},
		resolveErr: errors.New("store broken"),
	}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 20, entries[0].AppID)
	assert.Equal(t, 1, entries[0].Rank, "ranks stay dense after a drop")
}

func TestGetLeaderboard_LiveFeedFailureDegradesToHistoryOnly(t *testing.T) {
	store := newMockStore()
	store.history[20] = &models.HistoryRecord{AppID: 20, Name: "B", DatePlayersCount: freshSample(300)}

	charts := &mockChartsClient{err: errors.New("feed down")}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		20: {AppID: 20, Name: "B", HeaderImage: "b.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})
	entries, err := ls.GetLeaderboard(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 20, entries[0].AppID)
}

// --- TTL cache and coalescing ---

func TestGetLeaderboard_SecondCallServedFromSnapshot(t *testing.T) {
	store := newMockStore()
	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})

	_, err := ls.GetLeaderboard(context.Background())
	require.NoError(t, err)
	_, err = ls.GetLeaderboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, charts.calls)
}

func TestInvalidate_ForcesRecompute(t *testing.T) {
	store := newMockStore()
	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})

	_, err := ls.GetLeaderboard(context.Background())
	require.NoError(t, err)

	ls.Invalidate()

	_, err = ls.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, charts.calls)
}

// blockingChartsClient parks every fetch until the gate opens, forcing
// concurrent callers to overlap on the cold cache.
type blockingChartsClient struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (m *blockingChartsClient) FetchTopChart(_ context.Context) (*models.TopChart, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	<-m.gate
	return &models.TopChart{Entries: []models.ChartEntry{{Rank: 1, AppID: 10, ConcurrentInGame: 500}}}, nil
}

func TestGetLeaderboard_ConcurrentColdCallsCoalesce(t *testing.T) {
	store := newMockStore()
	charts := &blockingChartsClient{gate: make(chan struct{})}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := NewLeaderboardService(leaderboardConf(), store, charts, resolver, &mockLogger{}, &mockMetrics{})

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := ls.GetLeaderboard(context.Background())
			assert.NoError(t, err)
			assert.Len(t, entries, 1)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(charts.gate)
	wg.Wait()

	assert.Equal(t, 1, charts.calls, "cold-cache callers must share one recompute")
}

// --- serve stale on error ---

func TestGetLeaderboard_ServesStaleOnRecomputeFailure(t *testing.T) {
	store := newMockStore()
	charts := &mockChartsClient{chart: &models.TopChart{Entries: []models.ChartEntry{
		{Rank: 1, AppID: 10, ConcurrentInGame: 500},
	}}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10: {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})

	entries, err := ls.GetLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// expire the snapshot and break the store
	ls.Invalidate()
	store.mu.Lock()
	store.historyErr = errors.New("disk gone")
	store.mu.Unlock()

	stale, err := ls.GetLeaderboard(context.Background())
	require.NoError(t, err, "expired snapshot still serves when recompute fails")
	assert.Equal(t, entries, stale)
}

func TestGetLeaderboard_ColdCacheFailureSurfaces(t *testing.T) {
	store := newMockStore()
	store.historyErr = errors.New("disk gone")
	charts := &mockChartsClient{chart: &models.TopChart{}}
	resolver := &mockResolver{}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})

	_, err := ls.GetLeaderboard(context.Background())
	assert.Error(t, err)
}

// --- secondary reads ---

func TestGetAllMetadata_SharesSnapshotWithLeaderboard(t *testing.T) {
	store := newMockStore()
	charts := &mockChartsClient{chart: &models.TopChart{}}
	resolver := &mockResolver{games: map[int]*models.GameMetadata{
		10:  {AppID: 10, Name: "Counter-Strike", HeaderImage: "cs.jpg"},
		570: {AppID: 570, Name: "Dota 2", HeaderImage: "d.jpg"},
	}}

	ls := newTestLeaderboard(leaderboardConf(), store, charts, resolver, &mockMetrics{})

	meta, err := ls.GetAllMetadata(context.Background())
	require.NoError(t, err)
	require.Len(t, meta, 2)
	assert.Equal(t, 10, meta[0].AppID)
	assert.Equal(t, 570, meta[1].AppID)

	_, err = ls.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, charts.calls, "metadata and leaderboard share one snapshot")
}

func TestGetHistory_InvalidAppID(t *testing.T) {
	ls := newTestLeaderboard(leaderboardConf(), newMockStore(), &mockChartsClient{}, &mockResolver{}, &mockMetrics{})

	_, _, err := ls.GetHistory(0)
	assert.ErrorIs(t, err, ErrInvalidAppID)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	store := newMockStore()
	store.metadata[10] = &models.MetadataRow{AppID: 10, Name: "Counter-Strike"}
	store.metadata[730] = &models.MetadataRow{AppID: 730, Name: "Counter-Strike 2"}
	store.metadata[570] = &models.MetadataRow{AppID: 570, Name: "Dota 2"}

	ls := newTestLeaderboard(leaderboardConf(), store, &mockChartsClient{}, &mockResolver{}, &mockMetrics{})

	matches, err := ls.Search("counter")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 10, matches[0].AppID)
	assert.Equal(t, 730, matches[1].AppID)

	none, err := ls.Search("half-life")
	require.NoError(t, err)
	assert.Empty(t, none)
}
