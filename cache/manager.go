// Package cache implements the offline resource cache manager: a
// version-tagged cache that is installed from a fixed manifest, activated
// by purging older versions, and then answers in-scope requests
// cache-first with network fallback.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel fetches during install.
const DefaultConcurrency = 4

// State is the lifecycle state of a Manager.
type State string

// Manager states.
const (
	StateUninstalled State = "uninstalled"
	StateInstalling  State = "installing"
	StateInstalled   State = "installed"
	StateActivating  State = "activating"
	StateActivated   State = "activated"
	StateRedundant   State = "redundant"
)

// Config describes the cache a Manager controls.
type Config struct {
	// Name is the version-tagged cache name, e.g. "mtg-rules-v1".
	Name string

	// BasePath is the scope: only request paths with this prefix are
	// handled by the cache.
	BasePath string

	// Origin is the scheme and host manifest paths are resolved against.
	Origin string

	// Manifest lists the paths precached on install.
	Manifest []string

	// Concurrency bounds parallel fetches during install.
	Concurrency int

	// DiscoverAssets also precaches assets referenced by HTML manifest
	// entries, best-effort.
	DiscoverAssets bool
}

// Validate returns an error if the config is unusable.
func (c Config) Validate() error {
	if c.Name == "" {
		return mtgrules.Errorf(mtgrules.EINVALID, "cache name required")
	}
	if !strings.HasPrefix(c.BasePath, "/") || !strings.HasSuffix(c.BasePath, "/") {
		return mtgrules.Errorf(mtgrules.EINVALID, "base path %q must start and end with /", c.BasePath)
	}
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return mtgrules.Errorf(mtgrules.EINVALID, "origin %q must be an absolute URL", c.Origin)
	}
	return nil
}

// Status is a snapshot of the manager.
type Status struct {
	State       State  `json:"state"`
	Cache       string `json:"cache"`
	Entries     int    `json:"entries"`
	Controlling bool   `json:"controlling"`

	// FilterKeys approximates the keys held by the negative lookup filter.
	FilterKeys uint `json:"filterKeys"`
}

// Manager owns the lifecycle of one named cache and answers requests for
// its scope.
type Manager struct {
	storage   mtgrules.CacheStorage
	fetcher   mtgrules.Fetcher
	cfg       Config
	origin    *url.URL
	logger    *slog.Logger
	limiter   *HostLimiter
	extractor mtgrules.AssetExtractor
	filter    *bloom.Filter

	retryDelays []time.Duration

	mu        sync.Mutex
	state     State
	installed mtgrules.Cache
	active    mtgrules.Cache
	closed    bool

	// writes tracks fire-and-forget cache writes.
	writes sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHostLimiter paces install fetches per host.
func WithHostLimiter(l *HostLimiter) Option {
	return func(m *Manager) {
		m.limiter = l
	}
}

// WithAssetExtractor sets the extractor used when Config.DiscoverAssets is
// enabled.
func WithAssetExtractor(e mtgrules.AssetExtractor) Option {
	return func(m *Manager) {
		m.extractor = e
	}
}

// WithRetryDelays retries failed install fetches after each delay in turn.
// By default a failed fetch fails the install immediately.
func WithRetryDelays(delays []time.Duration) Option {
	return func(m *Manager) {
		m.retryDelays = delays
	}
}

// NewManager creates a Manager in the uninstalled state.
func NewManager(storage mtgrules.CacheStorage, fetcher mtgrules.Fetcher, cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	origin, _ := url.Parse(cfg.Origin)
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	m := &Manager{
		storage: storage,
		fetcher: fetcher,
		cfg:     cfg,
		origin:  origin,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		filter:  bloom.NewFilter(uint(max(len(cfg.Manifest), 1)*8), 0.01),
		state:   StateUninstalled,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config { return m.cfg }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Install precaches every manifest resource into the named cache. The
// install is all-or-nothing: any failed fetch or non-200 response leaves
// storage untouched and moves the manager to StateRedundant.
// Returns ECONFLICT unless the manager is uninstalled.
func (m *Manager) Install(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninstalled {
		state := m.state
		m.mu.Unlock()
		return mtgrules.Errorf(mtgrules.ECONFLICT, "cannot install from state %s", state)
	}
	m.state = StateInstalling
	m.mu.Unlock()

	m.logger.Info("installing", "cache", m.cfg.Name)

	c, n, err := m.install(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateRedundant
		m.logger.Error("failed to cache static resources", "cache", m.cfg.Name, "err", err)
		return fmt.Errorf("install %s: %w", m.cfg.Name, err)
	}
	m.installed = c
	m.state = StateInstalled
	m.logger.Info("static resources cached", "cache", m.cfg.Name, "count", n)
	return nil
}

func (m *Manager) install(ctx context.Context) (mtgrules.Cache, int, error) {
	entries, err := m.precache(ctx)
	if err != nil {
		return nil, 0, err
	}
	if m.cfg.DiscoverAssets && m.extractor != nil {
		entries = append(entries, m.discover(ctx, entries)...)
	}

	c, err := m.storage.Open(ctx, m.cfg.Name)
	if err != nil {
		return nil, 0, err
	}
	if err := c.PutAll(ctx, entries); err != nil {
		return nil, 0, err
	}
	return c, len(entries), nil
}

// precache fetches every manifest resource concurrently. The first failure
// cancels the rest.
func (m *Manager) precache(ctx context.Context) ([]mtgrules.Entry, error) {
	keys := make([]string, len(m.cfg.Manifest))
	for i, path := range m.cfg.Manifest {
		key, err := m.resolve(path)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}

	entries := make([]mtgrules.Entry, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			resp, err := m.fetchOK(gctx, key)
			if err != nil {
				return err
			}
			entries[i] = mtgrules.Entry{Key: key, Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// discover precaches same-origin assets referenced by HTML entries.
// Failures are logged and skipped.
func (m *Manager) discover(ctx context.Context, entries []mtgrules.Entry) []mtgrules.Entry {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Key] = true
	}

	var urls []string
	for _, e := range entries {
		if !strings.Contains(e.Response.Header.Get("Content-Type"), "text/html") {
			continue
		}
		assets, err := m.extractor.ExtractAssets(string(e.Response.Body), e.Key, m.cfg.BasePath)
		if err != nil {
			m.logger.Warn("asset discovery failed", "url", e.Key, "err", err)
			continue
		}
		for _, a := range assets {
			if !known[a] {
				known[a] = true
				urls = append(urls, a)
			}
		}
	}

	found := make([]*mtgrules.Response, len(urls))
	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			resp, err := m.fetchOK(ctx, u)
			if err != nil {
				m.logger.Warn("skipping discovered asset", "url", u, "err", err)
				return nil
			}
			found[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	var out []mtgrules.Entry
	for i, resp := range found {
		if resp != nil {
			out = append(out, mtgrules.Entry{Key: urls[i], Response: resp})
		}
	}
	return out
}

// fetchOK fetches u for install and requires a cacheable response:
// status 200 from the origin itself.
func (m *Manager) fetchOK(ctx context.Context, u string) (*mtgrules.Response, error) {
	if err := m.limiter.Wait(ctx, m.origin.Host); err != nil {
		return nil, err
	}
	resp, err := m.fetchWithRetry(ctx, mtgrules.NewRequest(u))
	if err != nil {
		return nil, mtgrules.Errorf(mtgrules.EUNAVAILABLE, "fetch %s: %v", u, err)
	}
	if resp.Status != http.StatusOK {
		return nil, mtgrules.Errorf(mtgrules.EUNAVAILABLE, "fetch %s: status %d", u, resp.Status)
	}
	if !resp.Cacheable() {
		return nil, mtgrules.Errorf(mtgrules.EUNAVAILABLE, "fetch %s: %s response", u, resp.Type)
	}
	return resp, nil
}

func (m *Manager) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", mtgrules.Errorf(mtgrules.EINVALID, "invalid manifest path %q: %v", path, err)
	}
	return m.origin.ResolveReference(ref).String(), nil
}

// Activate deletes every cache other than the current one and claims the
// scope. Returns ECONFLICT unless the manager is installed.
func (m *Manager) Activate(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateInstalled {
		state := m.state
		m.mu.Unlock()
		return mtgrules.Errorf(mtgrules.ECONFLICT, "cannot activate from state %s", state)
	}
	m.state = StateActivating
	c := m.installed
	m.mu.Unlock()

	m.logger.Info("activating", "cache", m.cfg.Name)

	if err := m.activate(ctx, c); err != nil {
		m.mu.Lock()
		m.state = StateInstalled
		m.mu.Unlock()
		return fmt.Errorf("activate %s: %w", m.cfg.Name, err)
	}

	m.mu.Lock()
	m.active = c
	m.state = StateActivated
	m.mu.Unlock()

	m.logger.Info("activated", "cache", m.cfg.Name)
	return nil
}

func (m *Manager) activate(ctx context.Context, c mtgrules.Cache) error {
	names, err := m.storage.Keys(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == m.cfg.Name {
			continue
		}
		m.logger.Info("deleting old cache", "cache", name)
		if _, err := m.storage.Delete(ctx, name); err != nil {
			return err
		}
	}

	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}
	m.filter.Reset(keys)
	return nil
}

// Start installs and immediately activates the cache. When install fails
// but storage already holds a cache with the current name from an earlier
// run, that cache is activated instead so the application works offline
// across restarts.
func (m *Manager) Start(ctx context.Context) error {
	installErr := m.Install(ctx)
	if installErr != nil {
		c, ok := m.existing(ctx)
		if !ok {
			return installErr
		}
		m.logger.Warn("install failed, using existing cache", "cache", m.cfg.Name, "err", installErr)

		m.mu.Lock()
		m.installed = c
		m.state = StateInstalled
		m.mu.Unlock()
	}
	return m.Activate(ctx)
}

// existing returns the previously installed cache with the current name.
func (m *Manager) existing(ctx context.Context) (mtgrules.Cache, bool) {
	has, err := m.storage.Has(ctx, m.cfg.Name)
	if err != nil || !has {
		return nil, false
	}
	c, err := m.storage.Open(ctx, m.cfg.Name)
	if err != nil {
		return nil, false
	}
	keys, err := c.Keys(ctx)
	if err != nil || len(keys) == 0 {
		return nil, false
	}
	return c, true
}

// Fetch answers req. In-scope GET requests are served cache-first once the
// manager is activated; everything else goes straight to the network.
func (m *Manager) Fetch(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error) {
	c := m.controller(req)
	if c == nil {
		return m.fetcher.Fetch(ctx, req)
	}

	key := req.URL
	if m.filter.Test(key) {
		resp, err := c.Match(ctx, key)
		if err == nil {
			m.logger.Debug("serving from cache", "url", key)
			return resp, nil
		}
		if mtgrules.ErrorCode(err) != mtgrules.ENOTFOUND {
			m.logger.Warn("cache lookup failed", "url", key, "err", err)
		}
	}

	resp, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		m.logger.Error("fetch failed", "url", key, "err", err)
		if req.AcceptsHTML() {
			if page, perr := OfflinePage(m.cfg.BasePath); perr == nil {
				return page, nil
			}
		}
		return nil, mtgrules.Errorf(mtgrules.EUNAVAILABLE, "fetch %s: %v", key, err)
	}

	if !resp.Cacheable() {
		return resp, nil
	}
	m.store(ctx, c, key, resp.Clone())
	return resp, nil
}

// controller returns the active cache if the manager controls req.
func (m *Manager) controller(req *mtgrules.Request) mtgrules.Cache {
	if req.Method != "" && req.Method != http.MethodGet {
		return nil
	}
	if !m.InScope(req.URL) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActivated || m.closed {
		return nil
	}
	return m.active
}

// InScope reports whether rawURL falls under the manager's base path.
func (m *Manager) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, m.cfg.BasePath)
}

// store writes resp to c without blocking the caller.
func (m *Manager) store(ctx context.Context, c mtgrules.Cache, key string, resp *mtgrules.Response) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.writes.Add(1)
	m.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer m.writes.Done()
		m.logger.Debug("caching new resource", "url", key)
		if err := c.Put(ctx, key, resp); err != nil {
			m.logger.Debug("cache write failed", "url", key, "err", err)
			return
		}
		m.filter.Add(key)
	}()
}

// Status reports the manager state and the size of the current cache.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	st := Status{
		State:       m.state,
		Cache:       m.cfg.Name,
		Controlling: m.state == StateActivated && !m.closed,
		FilterKeys:  m.filter.EstimatedCount(),
	}
	c := m.active
	if c == nil {
		c = m.installed
	}
	m.mu.Unlock()

	if c != nil {
		keys, err := c.Keys(ctx)
		if err != nil {
			return st, err
		}
		st.Entries = len(keys)
	}
	return st, nil
}

// Close stops controlling requests and waits for pending cache writes.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.writes.Wait()
	return nil
}
