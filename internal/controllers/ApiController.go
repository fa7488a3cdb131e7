package controllers

import (
	"errors"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"gamestats/internal/providers"
	"gamestats/internal/services"
)

type ApiController struct {
	logger      providers.Logger
	leaderboard services.LeaderboardServiceInterface
	resolver    services.ResolverServiceInterface
	refresh     services.RefreshServiceInterface
	cache       providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, leaderboard services.LeaderboardServiceInterface, resolver services.ResolverServiceInterface, refresh services.RefreshServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:      logger,
		leaderboard: leaderboard,
		resolver:    resolver,
		refresh:     refresh,
		cache:       cache,
	}
}

func getAppID(r *http.Request) (int, error) {
	appid, err := strconv.Atoi(r.URL.Query().Get("appid"))
	if err != nil || appid <= 0 {
		return 0, services.ErrInvalidAppID
	}
	return appid, nil
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		if errors.Is(err, services.ErrInvalidAppID) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) GetTopCurrentGames(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "top", func() (any, error) {
		return ac.leaderboard.GetLeaderboard(r.Context())
	})
}

func (ac *ApiController) GetGame(w http.ResponseWriter, r *http.Request) {
	appid, err := getAppID(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "game:"+strconv.Itoa(appid), func() (any, error) {
		return ac.resolver.Resolve(r.Context(), appid)
	})
}

func (ac *ApiController) GetAllMetadata(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "allmetadata", func() (any, error) {
		return ac.leaderboard.GetAllMetadata(r.Context())
	})
}

// GetPlayerCount serves a title's whole stored player-count series; the
// chart frontend splits date_playerscount into its points.
func (ac *ApiController) GetPlayerCount(w http.ResponseWriter, r *http.Request) {
	appid, err := getAppID(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	rec, ok, err := ac.leaderboard.GetHistory(appid)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	gson, err := json.Marshal(rec)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "search:"+q, func() (any, error) {
		return ac.leaderboard.Search(q)
	})
}

func (ac *ApiController) GetAllGamesList(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "gameslist", func() (any, error) {
		return ac.leaderboard.GetKnownTitles()
	})
}

type updateResponse struct {
	Status string `json:"status"`
}

// TriggerUpdate never serves from cache: every call has to reach the
// lock record so a due refresh actually starts.
func (ac *ApiController) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	status, err := ac.refresh.TriggerRefresh(r.Context())
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "Refresh failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(updateResponse{Status: status})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}
