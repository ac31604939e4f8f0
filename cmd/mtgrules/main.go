package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/bbolt"
	"github.com/fwojciec/mtgrules/chat"
	"github.com/fwojciec/mtgrules/fs"
	mtghttp "github.com/fwojciec/mtgrules/http"
	mtgslog "github.com/fwojciec/mtgrules/slog"
	"github.com/fwojciec/mtgrules/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Content store backing the content service. Set during Run.
	Store *fs.ContentStore

	closers []io.Closer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases storage opened by Run.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mtgrules"),
		kong.Description("Offline-capable Magic: The Gathering rules reference."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mtgrules --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	if cli.Data != "" {
		cfg.DataDir = cli.Data
	}
	if cli.DB != "" {
		cfg.Storage.Path = cli.DB
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	deps.Config = cfg

	m.Store = fs.NewContentStore(cfg.DataDir)
	deps.Content = mtgslog.NewLoggingContentService(m.Store, deps.Logger)
	deps.Reload = m.Store.Invalidate
	deps.Asker = mtgslog.NewLoggingAsker(chat.NewPlaceholderAsker(cfg.GetChatDelay()), deps.Logger)
	deps.Fetcher = mtgslog.NewLoggingFetcher(mtghttp.NewFetcher(
		mtghttp.WithOrigin(cfg.Origin),
		mtghttp.WithTimeout(cfg.GetTimeout()),
	), deps.Logger)

	// Only the commands touching the resource cache open storage.
	switch strings.Fields(kongCtx.Command())[0] {
	case "serve", "cache":
		storage, err := m.openStorage(cfg.Storage)
		if err != nil {
			fmt.Fprintf(stderr, "Hint: Set MTGRULES_DB to use a different cache path\n")
			return fmt.Errorf("failed to open cache storage at %q: %w", cfg.Storage.Path, err)
		}
		deps.Storage = storage
	}

	return kongCtx.Run(deps)
}

// openStorage opens the configured backend and registers it for Close.
func (m *Main) openStorage(cfg StorageConfig) (mtgrules.CacheStorage, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	switch cfg.Driver {
	case DriverBolt:
		storage, err := bbolt.NewCacheStorage(cfg.Path)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, storage)
		return storage, nil
	default:
		db := sqlite.NewDB(cfg.Path)
		if err := db.Open(); err != nil {
			return nil, err
		}
		m.closers = append(m.closers, db)
		return sqlite.NewCacheStorage(db), nil
	}
}
