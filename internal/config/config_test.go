package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  shutdown_timeout_seconds: 5
auth:
  enabled: true
  bearer_token: secret
db:
  dsn: postgres://localhost:5432/gamepass
  max_conns: 12
crawl:
  default_language: de-de
  default_market: DE
  chunk_size: 10
  concurrency: 8
catalog:
  catalog_base_url: https://catalog.example.com
  marketplace_base_url: https://marketplace.example.com
  timeout_seconds: 45
notifier:
  url: https://metadata.example.com/crawl
image_cache:
  root: /tmp/gamepass-images
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.BearerToken != "secret" {
		t.Fatalf("expected auth enabled with bearer token")
	}
	if cfg.DB.DSN != "postgres://localhost:5432/gamepass" || cfg.DB.MaxConns != 12 {
		t.Fatalf("expected db overrides to apply: %+v", cfg.DB)
	}
	if cfg.Crawl.DefaultLanguage != "de-de" || cfg.Crawl.ChunkSize != 10 {
		t.Fatalf("expected crawl overrides to apply: %+v", cfg.Crawl)
	}
	if cfg.Notifier.URL != "https://metadata.example.com/crawl" {
		t.Fatalf("expected notifier url override, got %q", cfg.Notifier.URL)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected development logging disabled")
	}
	if got := cfg.CatalogTimeout(); got != 45*time.Second {
		t.Fatalf("expected catalog timeout 45s, got %v", got)
	}
	// Defaults survive partial overrides.
	if cfg.Crawl.DefaultMarket != "DE" || cfg.ImageCache.TimeoutSeconds != 30 {
		t.Fatalf("expected default image cache timeout, got %+v", cfg.ImageCache)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:     ServerConfig{Port: 8080},
		DB:         DBConfig{DSN: "postgres://localhost/gamepass"},
		Crawl:      CrawlConfig{ChunkSize: 20, Concurrency: 16},
		Catalog:    CatalogConfig{TimeoutSeconds: 30},
		ImageCache: ImageCacheConfig{Root: "/tmp/images"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "missing dsn",
			cfg: func() Config {
				c := base
				c.DB.DSN = ""
				return c
			}(),
			want: "db.dsn",
		},
		{
			name: "invalid chunk size",
			cfg: func() Config {
				c := base
				c.Crawl.ChunkSize = 0
				return c
			}(),
			want: "crawl.chunk_size",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Crawl.Concurrency = 0
				return c
			}(),
			want: "crawl.concurrency",
		},
		{
			name: "invalid catalog timeout",
			cfg: func() Config {
				c := base
				c.Catalog.TimeoutSeconds = 0
				return c
			}(),
			want: "catalog.timeout_seconds",
		},
		{
			name: "missing cache root",
			cfg: func() Config {
				c := base
				c.ImageCache.Root = ""
				return c
			}(),
			want: "image_cache.root",
		},
		{
			name: "auth missing bearer token",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.bearer_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
