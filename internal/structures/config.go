package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type StoreConfig struct {
	Dir        string `yaml:"dir" validate:"required|unixPath"`
	SyncWrites bool   `yaml:"syncWrites"`
}

type SteamConfig struct {
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout" validate:"required|min:1"`
}

type LeaderboardConfig struct {
	TTL             time.Duration `yaml:"ttl" validate:"required|min:1"`
	FreshnessWindow time.Duration `yaml:"freshnessWindow" validate:"required|min:1"`
	MaxEntries      int           `yaml:"maxEntries"`
}

type RefreshConfig struct {
	Cooldown time.Duration `yaml:"cooldown" validate:"required|min:1"`
	Interval time.Duration `yaml:"interval" validate:"required|min:1"`
	Workers  int           `yaml:"workers" validate:"required|min:1"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server            `yaml:"webServer"`
	Store       StoreConfig       `yaml:"store"`
	Steam       SteamConfig       `yaml:"steam"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Persistence Persistence       `yaml:"persistence"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}
