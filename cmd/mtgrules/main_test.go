package main_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/mtgrules"
	main "github.com/fwojciec/mtgrules/cmd/mtgrules"
	"github.com/fwojciec/mtgrules/fs"
	"github.com/fwojciec/mtgrules/mock"
	"github.com/fwojciec/mtgrules/sqlite"
	"github.com/stretchr/testify/require"
)

const rulesJSON = `{"mtgrules": [
	{"section": "1", "title": "Game Concepts", "subsections": [
		{"subsection": "100", "title": "General", "rules": [
			{"rule": "100.1", "text": "These Magic rules apply to any Magic game with two or more players.", "examples": [], "subrules": [
				{"subrule": "100.1a", "text": "A two-player game is a game that begins with only two players.", "examples": []}
			]}
		]}
	]},
	{"section": "6", "title": "Spells, Abilities, and Effects", "subsections": [
		{"subsection": "603", "title": "Handling Triggered Abilities", "rules": [
			{"rule": "603.1", "text": "Triggered abilities have a trigger condition and an effect.", "examples": [], "subrules": []},
			{"rule": "603.2", "text": "Whenever a game event occurs, check for triggered abilities.", "examples": [], "subrules": [
				{"subrule": "603.2a", "text": "Put the ability on the stack.", "examples": []},
				{"subrule": "603.2b", "text": "Some abilities trigger on phases.", "examples": []}
			]}
		]}
	]}
]}`

const glossaryJSON = `{"glossary": [
	{"term": "Ability", "text": "Text on an object that explains what it does. See the stack."},
	{"term": "Stack", "text": "The zone where spells wait on the stack to resolve."},
	{"term": "Tap", "text": "To turn a permanent sideways."}
]}`

// writeDataDir creates a data directory with the rules and glossary files.
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fs.RulesFile), []byte(rulesJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fs.GlossaryFile), []byte(glossaryJSON), 0644))
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a config pointing at a fake origin with a short
// manifest.
func testConfig(dataDir string) *main.Config {
	cfg := main.DefaultConfig()
	cfg.Origin = "https://example.com"
	cfg.Manifest = []string{"/mtg-rules/", "/mtg-rules/rules.json"}
	cfg.DataDir = dataDir
	cfg.RateLimit = 0
	cfg.Storage.Path = ":memory:"
	return cfg
}

// okOrigin answers every request with a 200 response.
func okOrigin() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, req *mtgrules.Request) (*mtgrules.Response, error) {
			return &mtgrules.Response{
				URL:    req.URL,
				Status: http.StatusOK,
				Type:   mtgrules.ResponseBasic,
				Header: http.Header{"Content-Type": []string{"text/plain"}},
				Body:   []byte("ok " + req.URL),
			}, nil
		},
	}
}

// newDeps returns dependencies backed by a real content store over dataDir
// and an in-memory cache storage.
func newDeps(t *testing.T, dataDir string) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	store := fs.NewContentStore(dataDir)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Logger:  discardLogger(),
		Config:  testConfig(dataDir),
		Content: store,
		Reload:  store.Invalidate,
		Asker: &mock.Asker{
			AskFn: func(context.Context, string) (string, error) { return "It uses the stack.", nil },
		},
		Storage: sqlite.NewCacheStorage(db),
		Fetcher: okOrigin(),
	}
	return deps, stdout, stderr
}
