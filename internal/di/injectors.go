//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"gamestats/internal"
	"gamestats/internal/backup"
	"gamestats/internal/controllers"
	"gamestats/internal/providers"
	"gamestats/internal/services"
	"gamestats/internal/steam"
	"gamestats/internal/store"
	"gamestats/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.NewBadgerStore,
		steam.NewChartsClient,
		steam.NewDetailsClient,
		steam.NewHistoryClient,
		services.NewResolverService,
		services.NewLeaderboardService,
		services.NewRefreshService,

		backup.NewZstdCompressor,
		backup.NewFileManager,
		backup.NewScheduler,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
