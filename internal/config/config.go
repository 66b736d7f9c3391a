// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	DB         DBConfig         `mapstructure:"db"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	ImageCache ImageCacheConfig `mapstructure:"image_cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port              int `mapstructure:"port"`
	ShutdownTimeout   int `mapstructure:"shutdown_timeout_seconds"`
	RequestTimeoutSec int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines webhook authentication.
type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BearerToken string `mapstructure:"bearer_token"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// CrawlConfig governs the crawl pipeline.
type CrawlConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	DefaultMarket   string `mapstructure:"default_market"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	Concurrency     int    `mapstructure:"concurrency"`
}

// CatalogConfig points at the upstream catalog and marketplace APIs.
type CatalogConfig struct {
	CatalogBaseURL     string `mapstructure:"catalog_base_url"`
	MarketplaceBaseURL string `mapstructure:"marketplace_base_url"`
	UserAgent          string `mapstructure:"user_agent"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
}

// NotifierConfig points at the downstream metadata service. An empty
// URL disables notification.
type NotifierConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ImageCacheConfig sets the artwork cache location and download limits.
type ImageCacheConfig struct {
	Root           string `mapstructure:"root"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GAMEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("crawl.default_language", "en-us")
	v.SetDefault("crawl.default_market", "US")
	v.SetDefault("crawl.chunk_size", 20)
	v.SetDefault("crawl.concurrency", 16)
	v.SetDefault("catalog.catalog_base_url", "https://catalog.gamepass.com")
	v.SetDefault("catalog.marketplace_base_url", "https://displaycatalog.mp.microsoft.com")
	v.SetDefault("catalog.user_agent", "gamepass-service/0.1")
	v.SetDefault("catalog.timeout_seconds", 30)
	v.SetDefault("notifier.timeout_seconds", 30)
	v.SetDefault("image_cache.root", "/var/cache/gamepass-images")
	v.SetDefault("image_cache.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Crawl.ChunkSize <= 0 {
		return fmt.Errorf("crawl.chunk_size must be > 0")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return fmt.Errorf("catalog.timeout_seconds must be > 0")
	}
	if c.ImageCache.Root == "" {
		return fmt.Errorf("image_cache.root is required")
	}
	if c.Auth.Enabled && c.Auth.BearerToken == "" {
		return fmt.Errorf("auth.bearer_token must be set when auth is enabled")
	}
	return nil
}

// CatalogTimeout returns the upstream client timeout as a duration.
func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// NotifierTimeout returns the downstream notifier timeout as a duration.
func (c Config) NotifierTimeout() time.Duration {
	return time.Duration(c.Notifier.TimeoutSeconds) * time.Second
}

// ImageTimeout returns the artwork download timeout as a duration.
func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageCache.TimeoutSeconds) * time.Second
}
