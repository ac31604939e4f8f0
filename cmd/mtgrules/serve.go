package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/cache"
	"github.com/fwojciec/mtgrules/fsnotify"
	"github.com/fwojciec/mtgrules/goquery"
	mtghttp "github.com/fwojciec/mtgrules/http"
)

// Run executes the serve command. It blocks until the context is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	manager, err := newManager(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	defer manager.Close()

	// Without a cache the server still proxies to the network.
	if err := manager.Start(deps.Ctx); err != nil {
		deps.Logger.Warn("cache not active, serving from network only", "err", err)
	}

	if c.Watch && deps.Reload != nil {
		watcher, err := fsnotify.NewWatcher(fsnotify.WithLogger(deps.Logger))
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Watch(deps.Config.DataDir, deps.Reload); err != nil {
			deps.Logger.Warn("not watching data directory", "dir", deps.Config.DataDir, "err", err)
		}
	}

	addr := deps.Config.Listen
	if c.Listen != "" {
		addr = c.Listen
	}
	server := mtghttp.NewServer(manager, deps.Content, deps.Asker,
		mtghttp.WithAddr(addr),
		mtghttp.WithServerLogger(deps.Logger),
	)
	if err := server.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Serving %s on http://%s%s\n", deps.Config.Origin, server.Addr(), deps.Config.BasePath)

	<-deps.Ctx.Done()
	return server.Close()
}

// newManager builds the cache manager from the configuration.
func newManager(deps *Dependencies) (*cache.Manager, error) {
	cfg := deps.Config
	opts := []cache.Option{
		cache.WithLogger(deps.Logger),
		cache.WithRetryDelays(cache.RetryDelays(cfg.Retries)),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, cache.WithHostLimiter(cache.NewHostLimiter(cfg.RateLimit, cfg.Concurrency)))
	}
	if cfg.DiscoverAssets {
		opts = append(opts, cache.WithAssetExtractor(goquery.NewAssetExtractor()))
	}
	return cache.NewManager(deps.Storage, deps.Fetcher, cfg.CacheConfig(), opts...)
}
