package services

import (
	"context"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/steam"
	"gamestats/internal/store"
)

// ResolverServiceInterface resolves title metadata through the tiered
// chain: quarantine gate, persistent store, then a single details fetch.
type ResolverServiceInterface interface {
	// Resolve never returns an error for an unresolvable title; it
	// quarantines and answers with the degraded sentinel instead. The
	// only caller-visible errors are malformed input and store failure.
	Resolve(ctx context.Context, appid int) (*models.GameMetadata, error)
	// ResolveAll returns every stored record ascending by appid, without
	// any network fetch.
	ResolveAll() ([]*models.GameMetadata, error)
}

type ResolverService struct {
	store   store.StoreInterface
	details steam.DetailsClientInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewResolverService(store store.StoreInterface, details steam.DetailsClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) ResolverServiceInterface {
	return &ResolverService{
		store:   store,
		details: details,
		logger:  logger,
		metrics: metrics,
	}
}

func (rs *ResolverService) Resolve(ctx context.Context, appid int) (*models.GameMetadata, error) {
	if appid <= 0 {
		return nil, ErrInvalidAppID
	}

	if rs.store.IsQuarantined(appid) {
		rs.metrics.IncResolverOutcome(providers.OutcomeSentinel)
		return models.SentinelMetadata(appid), nil
	}

	row, ok, err := rs.store.GetMetadata(appid)
	if err != nil {
		return nil, err
	}
	if ok {
		rs.metrics.IncResolverOutcome(providers.OutcomeStored)
		return row.ToGame(), nil
	}

	game, err := rs.details.FetchDetails(ctx, appid)
	if err != nil {
		// Absence, timeout and parse failures all land here. The title
		// goes into quarantine so the next resolve skips the network.
		rs.logger.Warnf(providers.TypeApp, "Details fetch failed for appid %d, quarantining: %s", appid, err)
		if qErr := rs.store.Quarantine(appid); qErr != nil {
			rs.logger.Errorf(providers.TypeApp, "Quarantine write failed for appid %d: %s", appid, qErr)
		}
		rs.metrics.IncResolverOutcome(providers.OutcomeQuarantined)
		rs.metrics.SetQuarantineSize(rs.store.QuarantineSize())
		return models.SentinelMetadata(appid), nil
	}

	// Persist-on-fetch. A concurrent resolve racing on the same miss may
	// write the same row; the store upserts, so last write wins.
	if err := rs.store.PutMetadata(game.ToRow()); err != nil {
		rs.logger.Errorf(providers.TypeApp, "Metadata persist failed for appid %d: %s", appid, err)
	}
	rs.metrics.IncResolverOutcome(providers.OutcomeFetched)
	return game, nil
}

func (rs *ResolverService) ResolveAll() ([]*models.GameMetadata, error) {
	rows, err := rs.store.GetAllMetadata()
	if err != nil {
		return nil, err
	}
	games := make([]*models.GameMetadata, 0, len(rows))
	for _, row := range rows {
		games = append(games, row.ToGame())
	}
	return games, nil
}
