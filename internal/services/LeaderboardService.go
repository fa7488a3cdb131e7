package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/steam"
	"gamestats/internal/store"
	"gamestats/internal/structures"
)

// LeaderboardServiceInterface serves the merged leaderboard and the
// metadata snapshot behind a TTL cache.
type LeaderboardServiceInterface interface {
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	GetAllMetadata(ctx context.Context) ([]*models.GameMetadata, error)
	GetHistory(appid int) (*models.HistoryRecord, bool, error)
	Search(query string) ([]models.KnownTitle, error)
	GetKnownTitles() ([]models.KnownTitle, error)
	// Invalidate expires the cached snapshot so the next request
	// recomputes. Called after a history refresh lands.
	Invalidate()
}

// snapshot is one consistent recomputation result: the merged ranking
// plus the full metadata snapshot it was enriched from, ascending by
// appid.
type snapshot struct {
	entries  []models.LeaderboardEntry
	metadata []*models.GameMetadata
}

type LeaderboardService struct {
	conf     *structures.Config
	store    store.StoreInterface
	charts   steam.ChartsClientInterface
	resolver ResolverServiceInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	mu        sync.RWMutex
	snap      *snapshot
	lastFetch atomic.Int64 // epoch millis of the last successful recompute
	flight    singleflight.Group
}

func NewLeaderboardService(conf *structures.Config, store store.StoreInterface, charts steam.ChartsClientInterface, resolver ResolverServiceInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) LeaderboardServiceInterface {
	return &LeaderboardService{
		conf:     conf,
		store:    store,
		charts:   charts,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

func (ls *LeaderboardService) GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	snap, err := ls.getOrRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.entries, nil
}

func (ls *LeaderboardService) GetAllMetadata(ctx context.Context) ([]*models.GameMetadata, error) {
	snap, err := ls.getOrRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.metadata, nil
}

func (ls *LeaderboardService) GetHistory(appid int) (*models.HistoryRecord, bool, error) {
	if appid <= 0 {
		return nil, false, ErrInvalidAppID
	}
	return ls.store.GetHistory(appid)
}

func (ls *LeaderboardService) Search(query string) ([]models.KnownTitle, error) {
	titles, err := ls.store.GetAllKnownTitles()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := make([]models.KnownTitle, 0)
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (ls *LeaderboardService) GetKnownTitles() ([]models.KnownTitle, error) {
	return ls.store.GetAllKnownTitles()
}

func (ls *LeaderboardService) Invalidate() {
	ls.lastFetch.Store(0)
}

// getOrRefresh serves the cached snapshot while it is inside the TTL.
// Concurrent callers hitting a cold or expired cache are coalesced into
// one recomputation. When a recompute fails and a stale snapshot
// exists, the stale data is served with a logged warning; only a cold
// cache surfaces the error.
func (ls *LeaderboardService) getOrRefresh(ctx context.Context) (*snapshot, error) {
	if snap := ls.freshSnapshot(); snap != nil {
		return snap, nil
	}

	v, err, _ := ls.flight.Do("leaderboard", func() (interface{}, error) {
		// A caller queued behind the winning flight may arrive here
		// after the recompute already landed.
		if snap := ls.freshSnapshot(); snap != nil {
			return snap, nil
		}
		// The result is shared by every waiting caller, so the
		// computation must not die with whichever request started it.
		return ls.recompute(context.WithoutCancel(ctx))
	})
	if err != nil {
		ls.mu.RLock()
		stale := ls.snap
		ls.mu.RUnlock()
		if stale != nil {
			ls.logger.Warnf(providers.TypeApp, "Leaderboard recompute failed, serving stale data: %s", err)
			return stale, nil
		}
		return nil, err
	}
	return v.(*snapshot), nil
}

func (ls *LeaderboardService) freshSnapshot() *snapshot {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	if ls.snap == nil {
		return nil
	}
	if time.Since(time.UnixMilli(ls.lastFetch.Load())) >= ls.conf.Leaderboard.TTL {
		return nil
	}
	return ls.snap
}

// recompute rebuilds the ranking and the metadata snapshot. The three
// inputs are independent and fetched concurrently; the timestamp
// advances only after everything succeeded.
func (ls *LeaderboardService) recompute(ctx context.Context) (*snapshot, error) {
	var (
		live      []models.ChartEntry
		meta      []*models.GameMetadata
		histories []*models.HistoryRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		chart, err := ls.charts.FetchTopChart(gctx)
		if err != nil {
			// A dead live feed degrades to history-only output.
			ls.logger.Warnf(providers.TypeApp, "Live chart unavailable, serving history only: %s", err)
			return nil
		}
		live = chart.Entries
		return nil
	})
	g.Go(func() error {
		var err error
		meta, err = ls.resolver.ResolveAll()
		return err
	})
	g.Go(func() error {
		var err error
		histories, err = ls.store.GetAllHistory()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := ls.merge(ctx, live, histories, meta)

	snap := &snapshot{entries: entries, metadata: meta}
	ls.mu.Lock()
	ls.snap = snap
	ls.mu.Unlock()
	ls.lastFetch.Store(time.Now().UnixMilli())
	ls.metrics.SetLeaderboardSize(len(entries))
	return snap, nil
}

// merge combines the live chart with the historical long tail into one
// dense 1-based ranking. Live entries come first, in feed order, with
// the feed's counts untouched. Tail candidates need a latest sample
// inside the freshness window and are sorted by count descending with
// stable ties. Titles present in both sources keep only the live row.
func (ls *LeaderboardService) merge(ctx context.Context, live []models.ChartEntry, histories []*models.HistoryRecord, meta []*models.GameMetadata) []models.LeaderboardEntry {
	now := time.Now()
	cutoff := now.Add(-ls.conf.Leaderboard.FreshnessWindow)

	inLive := make(map[int]struct{}, len(live))
	for _, e := range live {
		inLive[e.AppID] = struct{}{}
	}

	type candidate struct {
		appid int
		name  string
		count int
	}
	var tail []candidate
	for _, rec := range histories {
		if _, ok := inLive[rec.AppID]; ok {
			continue
		}
		sample, ok := rec.Latest()
		if !ok {
			continue
		}
		ts := time.UnixMilli(sample.Timestamp)
		if !ts.After(cutoff) || ts.After(now) {
			continue
		}
		tail = append(tail, candidate{appid: rec.AppID, name: rec.Name, count: sample.Count})
	}
	sort.SliceStable(tail, func(i, j int) bool { return tail[i].count > tail[j].count })

	merged := make([]models.LeaderboardEntry, 0, len(live)+len(tail))
	for _, e := range live {
		merged = append(merged, models.LeaderboardEntry{AppID: e.AppID, ConcurrentInGame: e.ConcurrentInGame})
	}
	for _, c := range tail {
		merged = append(merged, models.LeaderboardEntry{AppID: c.appid, ConcurrentInGame: c.count, Name: c.name})
	}

	// Fill in name/image from the snapshot first, resolving live only on
	// a snapshot miss. Ranks are assigned last so a dropped entry never
	// leaves a gap, and the cap counts only entries that survived
	// enrichment.
	limit := ls.conf.Leaderboard.MaxEntries
	result := make([]models.LeaderboardEntry, 0, len(merged))
	for _, e := range merged {
		if limit > 0 && len(result) == limit {
			break
		}
		if e.Name == "" || e.HeaderImage == "" {
			md := lookupMetadata(meta, e.AppID)
			if md == nil {
				var err error
				md, err = ls.resolver.Resolve(ctx, e.AppID)
				if err != nil {
					ls.logger.Warnf(providers.TypeApp, "Dropping appid %d from leaderboard: %s", e.AppID, err)
					continue
				}
			}
			if e.Name == "" {
				e.Name = md.Name
			}
			if e.HeaderImage == "" {
				e.HeaderImage = md.HeaderImage
			}
		}
		e.Rank = len(result) + 1
		result = append(result, e)
	}
	return result
}

// lookupMetadata binary-searches the appid-ascending snapshot.
func lookupMetadata(meta []*models.GameMetadata, appid int) *models.GameMetadata {
	i := sort.Search(len(meta), func(i int) bool { return meta[i].AppID >= appid })
	if i < len(meta) && meta[i].AppID == appid {
		return meta[i]
	}
	return nil
}
