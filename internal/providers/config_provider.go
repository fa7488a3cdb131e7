package providers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gamestats/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("webServer.host", "0.0.0.0")
	viper.SetDefault("webServer.port", 8080)
	viper.SetDefault("store.dir", "/var/lib/gamestats/store")
	viper.SetDefault("store.syncWrites", false)
	viper.SetDefault("steam.timeout", 10*time.Second)
	viper.SetDefault("leaderboard.ttl", 12*time.Hour)
	viper.SetDefault("leaderboard.freshnessWindow", 24*time.Hour)
	viper.SetDefault("leaderboard.maxEntries", 2200)
	viper.SetDefault("refresh.cooldown", 12*time.Hour)
	viper.SetDefault("refresh.interval", time.Hour)
	viper.SetDefault("refresh.workers", 100)
	viper.SetDefault("persistence.filePath", "/var/lib/gamestats/backup.bin")
	viper.SetDefault("persistence.saveInterval", time.Hour)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.mode", 0o644)
	viper.SetDefault("logger.dir", "/var/log/gamestats")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.size", 100)
	viper.SetDefault("cache.ttl", time.Minute)
	viper.SetDefault("metrics.enabled", true)

	viper.BindEnv("logger.level", "GAMESTATS_LOG_LEVEL")
	viper.BindEnv("steam.apiKey", "GAMESTATS_STEAM_API_KEY")
	viper.BindEnv("store.dir", "GAMESTATS_STORE_DIR")
	viper.BindEnv("leaderboard.ttl", "GAMESTATS_LEADERBOARD_TTL")
	viper.BindEnv("refresh.cooldown", "GAMESTATS_REFRESH_COOLDOWN")
	viper.BindEnv("cache.enabled", "GAMESTATS_CACHE_ENABLED")
	viper.BindEnv("cache.size", "GAMESTATS_CACHE_SIZE")

	// A missing config file is fine, the defaults plus env binds carry a
	// full configuration. Anything else (unreadable, bad yaml) is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err := viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "GameStats"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
