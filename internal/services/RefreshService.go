package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/steam"
	"gamestats/internal/store"
	"gamestats/internal/structures"
)

// TriggerRefresh outcomes reported to the caller.
const (
	RefreshStatusUpdated = "updated"
	RefreshStatusNotDue  = "update not due"
)

// RefreshServiceInterface rebuilds the whole history table from the
// upstream feeds, guarded by the durable update lock.
type RefreshServiceInterface interface {
	// TriggerRefresh attempts a bulk refresh. When another refresh is in
	// flight or the cooldown has not elapsed, it answers
	// RefreshStatusNotDue without touching the network.
	TriggerRefresh(ctx context.Context) (string, error)
}

type RefreshService struct {
	conf        *structures.Config
	store       store.StoreInterface
	charts      steam.ChartsClientInterface
	history     steam.HistoryClientInterface
	resolver    ResolverServiceInterface
	leaderboard LeaderboardServiceInterface
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
}

func NewRefreshService(conf *structures.Config, store store.StoreInterface, charts steam.ChartsClientInterface, history steam.HistoryClientInterface, resolver ResolverServiceInterface, leaderboard LeaderboardServiceInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) RefreshServiceInterface {
	return &RefreshService{
		conf:        conf,
		store:       store,
		charts:      charts,
		history:     history,
		resolver:    resolver,
		leaderboard: leaderboard,
		logger:      logger,
		metrics:     metrics,
	}
}

func (rs *RefreshService) TriggerRefresh(ctx context.Context) (string, error) {
	if !rs.store.AcquireUpdateLock(rs.conf.Refresh.Cooldown) {
		return RefreshStatusNotDue, nil
	}
	// The lock is released no matter how the refresh ends; a failed run
	// only advances last_update_time, it never wedges the lock.
	defer func() {
		if err := rs.store.ReleaseUpdateLock(); err != nil {
			rs.logger.Errorf(providers.TypeApp, "Update lock release failed: %s", err)
		}
	}()

	started := time.Now()
	if err := rs.refreshAll(ctx); err != nil {
		return "", err
	}
	rs.metrics.ObserveRefreshDuration(time.Since(started))
	rs.logger.Infof(providers.TypeApp, "History refresh finished in %s", time.Since(started))
	return RefreshStatusUpdated, nil
}

// refreshAll fetches a fresh series for every tracked title plus any
// new entrant on the live chart, then swaps the history table in one
// truncate-and-replace. Titles whose fetch fails are dropped from this
// snapshot and picked up again on the next run.
func (rs *RefreshService) refreshAll(ctx context.Context) error {
	titles, err := rs.targetTitles(ctx)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		records = make([]*models.HistoryRecord, 0, len(titles))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rs.conf.Refresh.Workers)
	for _, title := range titles {
		title := title
		g.Go(func() error {
			samples, err := rs.history.FetchHistory(gctx, title.AppID)
			if err != nil {
				rs.logger.Warnf(providers.TypeApp, "History fetch failed for appid %d, skipping: %s", title.AppID, err)
				return nil
			}
			rec := &models.HistoryRecord{
				AppID:            title.AppID,
				Name:             title.Name,
				DatePlayersCount: models.JoinSamples(samples),
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].AppID < records[j].AppID })
	if err := rs.store.ReplaceHistory(records); err != nil {
		return err
	}
	rs.leaderboard.Invalidate()
	return nil
}

// targetTitles is the union of every known title and the live chart's
// new entrants, deduplicated by appid. New entrants are resolved first
// so their record carries a real name; quarantined ones stay out until
// they resolve.
func (rs *RefreshService) targetTitles(ctx context.Context) ([]models.KnownTitle, error) {
	known, err := rs.store.GetAllKnownTitles()
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(known))
	titles := make([]models.KnownTitle, 0, len(known))
	for _, t := range known {
		if _, ok := seen[t.AppID]; ok {
			continue
		}
		seen[t.AppID] = struct{}{}
		titles = append(titles, t)
	}

	chart, err := rs.charts.FetchTopChart(ctx)
	if err != nil {
		rs.logger.Warnf(providers.TypeApp, "Live chart unavailable, refreshing known titles only: %s", err)
		return titles, nil
	}
	for _, entry := range chart.Entries {
		if _, ok := seen[entry.AppID]; ok {
			continue
		}
		md, err := rs.resolver.Resolve(ctx, entry.AppID)
		if err != nil {
			rs.logger.Warnf(providers.TypeApp, "Skipping new entrant %d: %s", entry.AppID, err)
			continue
		}
		if md.Sentinel() {
			continue
		}
		seen[entry.AppID] = struct{}{}
		titles = append(titles, models.KnownTitle{AppID: entry.AppID, Name: md.Name})
	}
	return titles, nil
}
