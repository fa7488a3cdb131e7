package internal

import (
	"net/http"

	"gamestats/internal/controllers"
	"gamestats/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/topcurrentgames", http.HandlerFunc(apiController.GetTopCurrentGames))
	routers.Get("/api/steam/game", http.HandlerFunc(apiController.GetGame))
	routers.Get("/api/steam/playercount", http.HandlerFunc(apiController.GetPlayerCount))
	routers.Get("/api/steam/allmetadata", http.HandlerFunc(apiController.GetAllMetadata))
	routers.Get("/api/steam/search", http.HandlerFunc(apiController.Search))
	routers.Get("/api/steam/getallgameslist", http.HandlerFunc(apiController.GetAllGamesList))
	routers.Post("/api/update", http.HandlerFunc(apiController.TriggerUpdate))
	return routers
}
