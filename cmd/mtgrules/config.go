package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/cache"
	mtghttp "github.com/fwojciec/mtgrules/http"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bbolt"
)

// DefaultOrigin is where the rules site is published.
const DefaultOrigin = "https://chillaso.github.io"

// Config is the deployment configuration, optionally read from a YAML file.
type Config struct {
	Origin         string        `yaml:"origin"`
	BasePath       string        `yaml:"base_path"`
	CacheName      string        `yaml:"cache_name"`
	Manifest       []string      `yaml:"manifest"`
	DataDir        string        `yaml:"data_dir"`
	Storage        StorageConfig `yaml:"storage"`
	Listen         string        `yaml:"listen"`
	DiscoverAssets bool          `yaml:"discover_assets"`
	Concurrency    int           `yaml:"concurrency"`
	RateLimit      float64       `yaml:"rate_limit"` // install requests per second per host, 0 disables
	Retries        int           `yaml:"retries"`
	ChatDelay      string        `yaml:"chat_delay"`
	Timeout        string        `yaml:"timeout"`
}

// StorageConfig selects the cache storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Origin:      DefaultOrigin,
		BasePath:    cache.DefaultBasePath,
		CacheName:   cache.DefaultCacheName,
		DataDir:     "data",
		Storage:     StorageConfig{Driver: DriverSQLite, Path: defaultDBPath()},
		Listen:      mtghttp.DefaultAddr,
		Concurrency: cache.DefaultConcurrency,
		RateLimit:   5,
		Retries:     2,
		ChatDelay:   "1.5s",
		Timeout:     "10s",
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "failed to read config: %v", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "failed to parse config: %v", err)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if err := c.CacheConfig().Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return mtgrules.Errorf(mtgrules.EINVALID, "unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return mtgrules.Errorf(mtgrules.EINVALID, "storage path required")
	}
	if c.Concurrency < 0 {
		return mtgrules.Errorf(mtgrules.EINVALID, "concurrency must not be negative")
	}
	if c.Retries < 0 {
		return mtgrules.Errorf(mtgrules.EINVALID, "retries must not be negative")
	}
	if c.RateLimit < 0 {
		return mtgrules.Errorf(mtgrules.EINVALID, "rate limit must not be negative")
	}
	if _, err := parseDuration("chat_delay", c.ChatDelay); err != nil {
		return err
	}
	if _, err := parseDuration("timeout", c.Timeout); err != nil {
		return err
	}
	return nil
}

// CacheConfig returns the cache manager configuration. An empty manifest
// selects the default one for the base path.
func (c *Config) CacheConfig() cache.Config {
	manifest := c.Manifest
	if len(manifest) == 0 {
		manifest = cache.DefaultManifest(c.BasePath)
	}
	return cache.Config{
		Name:           c.CacheName,
		BasePath:       c.BasePath,
		Origin:         c.Origin,
		Manifest:       manifest,
		Concurrency:    c.Concurrency,
		DiscoverAssets: c.DiscoverAssets,
	}
}

// GetChatDelay returns the placeholder reply delay.
func (c *Config) GetChatDelay() time.Duration {
	d, _ := parseDuration("chat_delay", c.ChatDelay)
	return d
}

// GetTimeout returns the network fetch timeout.
func (c *Config) GetTimeout() time.Duration {
	d, err := parseDuration("timeout", c.Timeout)
	if err != nil || d == 0 {
		return mtghttp.DefaultFetchTimeout
	}
	return d
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, mtgrules.Errorf(mtgrules.EINVALID, "invalid %s %q", field, s)
	}
	return d, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mtgrules.db"
	}
	return filepath.Join(home, ".mtgrules", "cache.db")
}
