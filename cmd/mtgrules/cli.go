package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/mtgrules"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Config  *Config
	Content mtgrules.ContentService
	Reload  func() // drops memoized content after data files change
	Asker   mtgrules.Asker
	Storage mtgrules.CacheStorage
	Fetcher mtgrules.Fetcher
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" env:"MTGRULES_CONFIG" help:"Path to YAML config file"`
	Data    string `env:"MTGRULES_DATA" help:"Directory holding rules.json, rules-index.json and glossary.json"`
	DB      string `name:"db" env:"MTGRULES_DB" help:"Cache storage path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Serve      ServeCmd      `cmd:"" help:"Serve the rules API and cache-first resource proxy"`
	Search     SearchCmd     `cmd:"" help:"Search the comprehensive rules"`
	Glossary   GlossaryCmd   `cmd:"" help:"Filter the glossary by term and definition"`
	Categories CategoriesCmd `cmd:"" help:"List rule categories or the rules of one category"`
	Index      IndexCmd      `cmd:"" help:"Print the rules navigation index"`
	Cache      CacheCmd      `cmd:"" help:"Inspect and manage the resource cache"`
	Chat       ChatCmd       `cmd:"" help:"Ask the rules assistant a question"`
	Migrate    MigrateCmd    `cmd:"" help:"Rewrite data files in the canonical nested layout"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Listen string `short:"l" help:"Listen address (overrides config)"`
	Watch  bool   `default:"true" negatable:"" help:"Reload data files when they change"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query     string `arg:"" optional:"" help:"Search query; empty shows a preview"`
	Preview   int    `short:"n" help:"Number of rules shown for an empty query"`
	Highlight bool   `default:"true" negatable:"" help:"Mark query occurrences in results"`
}

// GlossaryCmd is the "glossary" subcommand.
type GlossaryCmd struct {
	Term string `short:"t" help:"Filter by term"`
	Text string `short:"q" help:"Filter by definition text"`
}

// CategoriesCmd is the "categories" subcommand.
type CategoriesCmd struct {
	ID string `arg:"" optional:"" help:"Category id (1-9)"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct{}

// CacheCmd groups the cache subcommands.
type CacheCmd struct {
	Status  CacheStatusCmd  `cmd:"" help:"Show stored caches and entry counts"`
	Install CacheInstallCmd `cmd:"" help:"Precache the manifest and activate it"`
	Purge   CachePurgeCmd   `cmd:"" help:"Delete stored caches"`
}

// CacheStatusCmd is the "cache status" subcommand.
type CacheStatusCmd struct{}

// CacheInstallCmd is the "cache install" subcommand.
type CacheInstallCmd struct{}

// CachePurgeCmd is the "cache purge" subcommand.
type CachePurgeCmd struct {
	Name  string `arg:"" optional:"" help:"Cache name; all caches when omitted"`
	Force bool   `help:"Confirm deletion"`
}

// ChatCmd is the "chat" subcommand.
type ChatCmd struct {
	Message string `arg:"" help:"Question for the assistant"`
}

// MigrateCmd is the "migrate" subcommand.
type MigrateCmd struct {
	Src string `arg:"" help:"Directory with the current data files"`
	Dst string `arg:"" help:"Directory to write canonical data files to"`
}
