// Package config loads StreamVault configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. STREAMVAULT_TMDB_API_KEY.
const EnvPrefix = "STREAMVAULT"

// Watchlist persistence backends.
const (
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrMissingAPIKey is returned by Validate when no provider credential is configured.
var ErrMissingAPIKey = errors.New("tmdb.api_key or tmdb.read_token is required")

// Config holds all application configuration.
type Config struct {
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TMDBConfig holds metadata provider settings.
type TMDBConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	ReadToken  string        `mapstructure:"read_token"` // v4 bearer token, optional
	BaseURL    string        `mapstructure:"base_url"`
	Language   string        `mapstructure:"language"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RedisConfig holds the optional Redis connection used for the response
// cache, shared rate-limit state and the redis watchlist backend.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	StaleTime  time.Duration `mapstructure:"stale_time"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// WatchlistConfig selects the watchlist persistence backend.
type WatchlistConfig struct {
	Backend string `mapstructure:"backend"` // bolt, redis or memory
	Path    string `mapstructure:"path"`    // bolt database file
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
			Timeout:  10 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Cache: CacheConfig{
			StaleTime:  5 * time.Minute,
			MaxEntries: 512,
		},
		Watchlist: WatchlistConfig{
			Backend: BackendBolt,
			Path:    filepath.Join(DataDir(), "watchlist.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the default config directory for the current OS.
func Dir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "streamvault")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "streamvault")
	}
}

// DataDir returns the default data directory for the current OS.
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "streamvault")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "streamvault")
	}
}

// Load reads configuration from path (or the default locations when empty)
// and applies STREAMVAULT_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("tmdb.api_key", d.TMDB.APIKey)
	v.SetDefault("tmdb.read_token", d.TMDB.ReadToken)
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.language", d.TMDB.Language)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.max_retries", d.TMDB.MaxRetries)
	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("cache.stale_time", d.Cache.StaleTime)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("watchlist.backend", d.Watchlist.Backend)
	v.SetDefault("watchlist.path", d.Watchlist.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.file", d.Logging.File)
}

// Validate checks the configuration for required and conflicting values.
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" && c.TMDB.ReadToken == "" {
		return ErrMissingAPIKey
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url is required")
	}
	if c.Cache.StaleTime < 0 {
		return fmt.Errorf("cache.stale_time must be >= 0 (got %s)", c.Cache.StaleTime)
	}
	switch c.Watchlist.Backend {
	case BackendBolt:
		if c.Watchlist.Path == "" {
			return fmt.Errorf("watchlist.path is required for the bolt backend")
		}
	case BackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("watchlist.backend=redis requires redis.enabled")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown watchlist.backend %q", c.Watchlist.Backend)
	}
	return nil
}
