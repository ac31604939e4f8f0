package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/cache"
	main "github.com/fwojciec/mtgrules/cmd/mtgrules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults without a file", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, main.DefaultOrigin, cfg.Origin)
		assert.Equal(t, cache.DefaultBasePath, cfg.BasePath)
		assert.Equal(t, cache.DefaultCacheName, cfg.CacheName)
		assert.Equal(t, main.DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, 1500*time.Millisecond, cfg.GetChatDelay())
		require.NoError(t, cfg.Validate())
	})

	t.Run("overrides defaults from YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "mtgrules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
origin: https://rules.example.com
base_path: /rules/
cache_name: mtg-rules-v2
data_dir: /srv/mtg/data
storage:
  driver: bbolt
  path: /var/lib/mtgrules/cache.bolt
discover_assets: true
concurrency: 8
chat_delay: 0s
timeout: 3s
`), 0644))

		cfg, err := main.LoadConfig(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "https://rules.example.com", cfg.Origin)
		assert.Equal(t, main.DriverBolt, cfg.Storage.Driver)
		assert.Equal(t, "/var/lib/mtgrules/cache.bolt", cfg.Storage.Path)
		assert.Equal(t, 3*time.Second, cfg.GetTimeout())
		assert.Zero(t, cfg.GetChatDelay())
		assert.Equal(t, 5.0, cfg.RateLimit, "unset fields keep defaults")

		cc := cfg.CacheConfig()
		assert.Equal(t, "mtg-rules-v2", cc.Name)
		assert.Equal(t, 8, cc.Concurrency)
		assert.True(t, cc.DiscoverAssets)
		assert.Equal(t, cache.DefaultManifest("/rules/"), cc.Manifest)
	})

	t.Run("returns EINVALID for malformed YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "mtgrules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("origin: [unclosed"), 0644))

		_, err := main.LoadConfig(path)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*main.Config)
		want   string
	}{
		{"relative origin", func(c *main.Config) { c.Origin = "/mtg" }, "origin"},
		{"base path without trailing slash", func(c *main.Config) { c.BasePath = "/mtg-rules" }, "base path"},
		{"empty cache name", func(c *main.Config) { c.CacheName = "" }, "cache name"},
		{"unknown driver", func(c *main.Config) { c.Storage.Driver = "redis" }, "storage driver"},
		{"empty storage path", func(c *main.Config) { c.Storage.Path = "" }, "storage path"},
		{"negative concurrency", func(c *main.Config) { c.Concurrency = -1 }, "concurrency"},
		{"negative retries", func(c *main.Config) { c.Retries = -1 }, "retries"},
		{"negative rate limit", func(c *main.Config) { c.RateLimit = -2 }, "rate limit"},
		{"bad chat delay", func(c *main.Config) { c.ChatDelay = "soon" }, "chat_delay"},
		{"negative timeout", func(c *main.Config) { c.Timeout = "-1s" }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := main.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
			assert.Contains(t, mtgrules.ErrorMessage(err), tt.want)
		})
	}
}
