package main_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/mtgrules"
	main "github.com/fwojciec/mtgrules/cmd/mtgrules"
	"github.com/fwojciec/mtgrules/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints matches with highlights", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		cmd := &main.SearchCmd{Query: "triggered", Highlight: true}
		require.NoError(t, cmd.Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "603.1  [6. Spells, Abilities, and Effects > 603. Handling Triggered Abilities]")
		assert.Contains(t, output, "**Triggered** abilities have a trigger condition")
		assert.Contains(t, output, "2 matching rules.")
	})

	t.Run("marks partial matches", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		cmd := &main.SearchCmd{Query: "phases"}
		require.NoError(t, cmd.Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "603.2 (partial match)")
		assert.Contains(t, output, "603.2b")
		assert.NotContains(t, output, "603.2a")
	})

	t.Run("empty query shows preview", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		cmd := &main.SearchCmd{Preview: 2}
		require.NoError(t, cmd.Run(deps))

		assert.Contains(t, stdout.String(), "Showing first 2 of 3 rules.")
	})

	t.Run("reports no matches", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		cmd := &main.SearchCmd{Query: "banding"}
		require.NoError(t, cmd.Run(deps))

		assert.Contains(t, stdout.String(), `No rules match "banding".`)
	})

	t.Run("returns error when data is missing", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(t, t.TempDir())

		err := (&main.SearchCmd{Query: "stack"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
		assert.True(t, strings.HasPrefix(stderr.String(), "error: "))
	})
}

func TestGlossaryCmd_Run(t *testing.T) {
	t.Parallel()

	deps, stdout, _ := newDeps(t, writeDataDir(t))

	cmd := &main.GlossaryCmd{Text: "stack"}
	require.NoError(t, cmd.Run(deps))

	output := stdout.String()
	assert.Contains(t, output, "Ability\n")
	assert.Contains(t, output, "Stack\n")
	assert.NotContains(t, output, "Tap\n")
	assert.Contains(t, output, "Showing 2 of 3 terms.")
}

func TestCategoriesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists all categories with counts", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		require.NoError(t, (&main.CategoriesCmd{}).Run(deps))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 9)
		assert.Contains(t, lines[0], "Game Concepts")
		assert.Contains(t, lines[5], "2 rules")
	})

	t.Run("prints rules of one category", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		require.NoError(t, (&main.CategoriesCmd{ID: "6"}).Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "6. Spells, Abilities, and Effects")
		assert.Contains(t, output, "603.1 Triggered abilities")
	})

	t.Run("reports empty category", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		require.NoError(t, (&main.CategoriesCmd{ID: "9"}).Run(deps))
		assert.Contains(t, stdout.String(), "No rules in this category.")
	})

	t.Run("returns ENOTFOUND for unknown id", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(t, writeDataDir(t))

		err := (&main.CategoriesCmd{ID: "12"}).Run(deps)
		assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
		assert.Contains(t, stderr.String(), "mtgrules categories")
	})
}

func TestIndexCmd_Run(t *testing.T) {
	t.Parallel()

	deps, stdout, _ := newDeps(t, writeDataDir(t))

	require.NoError(t, (&main.IndexCmd{}).Run(deps))

	output := stdout.String()
	assert.Contains(t, output, "1. Game Concepts\n  100 General\n")
	assert.Contains(t, output, "  603 Handling Triggered Abilities\n")
}

func TestChatCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints reply", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		require.NoError(t, (&main.ChatCmd{Message: "Where do spells go?"}).Run(deps))
		assert.Equal(t, "It uses the stack.\n", stdout.String())
	})

	t.Run("rejects blank message", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(t, writeDataDir(t))

		err := (&main.ChatCmd{Message: " "}).Run(deps)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})
}

func TestMigrateCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes canonical files", func(t *testing.T) {
		t.Parallel()

		src := writeDataDir(t)
		dst := filepath.Join(t.TempDir(), "out")
		deps, stdout, _ := newDeps(t, src)

		require.NoError(t, (&main.MigrateCmd{Src: src, Dst: dst}).Run(deps))

		assert.Contains(t, stdout.String(), "Wrote")
		for _, name := range []string{fs.RulesFile, fs.IndexFile, fs.GlossaryFile} {
			assert.FileExists(t, filepath.Join(dst, name))
		}

		idx, err := fs.NewContentStore(dst).Index(context.Background())
		require.NoError(t, err)
		assert.Len(t, idx.Sections, 2)
	})

	t.Run("rejects same source and destination", func(t *testing.T) {
		t.Parallel()

		src := writeDataDir(t)
		deps, _, _ := newDeps(t, src)

		err := (&main.MigrateCmd{Src: src, Dst: src + "/"}).Run(deps)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
	})

	t.Run("rejects destination containing source", func(t *testing.T) {
		t.Parallel()

		site := t.TempDir()
		src := filepath.Join(site, "legacy")
		require.NoError(t, os.MkdirAll(src, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(src, fs.RulesFile), []byte(rulesJSON), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(src, fs.GlossaryFile), []byte(glossaryJSON), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(site, "README.md"), []byte("# site"), 0644))
		deps, _, stderr := newDeps(t, src)

		err := (&main.MigrateCmd{Src: src, Dst: site}).Run(deps)

		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
		assert.Contains(t, stderr.String(), "contains source")
		assert.FileExists(t, filepath.Join(site, "README.md"))
		assert.FileExists(t, filepath.Join(src, fs.RulesFile))
	})

	t.Run("refuses destination with unrelated files", func(t *testing.T) {
		t.Parallel()

		src := writeDataDir(t)
		dst := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dst, "README.md"), []byte("# site"), 0644))
		deps, _, _ := newDeps(t, src)

		err := (&main.MigrateCmd{Src: src, Dst: dst}).Run(deps)

		assert.Equal(t, mtgrules.ECONFLICT, mtgrules.ErrorCode(err))
		assert.FileExists(t, filepath.Join(dst, "README.md"))
	})

	t.Run("leaves destination untouched on error", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(src, fs.RulesFile), []byte(`{"rules": []}`), 0644))
		dst := filepath.Join(t.TempDir(), "out")
		deps, _, _ := newDeps(t, src)

		err := (&main.MigrateCmd{Src: src, Dst: dst}).Run(deps)

		assert.Equal(t, mtgrules.ESCHEMA, mtgrules.ErrorCode(err))
		assert.NoDirExists(t, dst)
		assert.NoDirExists(t, dst+".tmp")
	})
}

func TestCacheCmds(t *testing.T) {
	t.Parallel()

	t.Run("install then status", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))

		require.NoError(t, (&main.CacheInstallCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "Installed mtg-rules-v1: 2 resources cached")

		stdout.Reset()
		require.NoError(t, (&main.CacheStatusCmd{}).Run(deps))
		assert.Equal(t, "mtg-rules-v1 (current)  2 entries\n", stdout.String())
	})

	t.Run("install replaces older caches", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))
		_, err := deps.Storage.Open(deps.Ctx, "mtg-rules-v0")
		require.NoError(t, err)

		require.NoError(t, (&main.CacheInstallCmd{}).Run(deps))

		stdout.Reset()
		require.NoError(t, (&main.CacheStatusCmd{}).Run(deps))
		assert.NotContains(t, stdout.String(), "mtg-rules-v0")
	})

	t.Run("purge requires force", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(t, writeDataDir(t))

		err := (&main.CachePurgeCmd{}).Run(deps)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("purge deletes all caches", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(t, writeDataDir(t))
		for _, name := range []string{"mtg-rules-v1", "mtg-rules-v2"} {
			_, err := deps.Storage.Open(deps.Ctx, name)
			require.NoError(t, err)
		}

		require.NoError(t, (&main.CachePurgeCmd{Force: true}).Run(deps))
		assert.Contains(t, stdout.String(), `Deleted cache "mtg-rules-v1"`)
		assert.Contains(t, stdout.String(), `Deleted cache "mtg-rules-v2"`)

		names, err := deps.Storage.Keys(deps.Ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("purge unknown cache returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(t, writeDataDir(t))

		err := (&main.CachePurgeCmd{Name: "mtg-rules-v9", Force: true}).Run(deps)
		assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
	})
}

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	deps, stdout, _ := newDeps(t, writeDataDir(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deps.Ctx = ctx

	cmd := &main.ServeCmd{Listen: "127.0.0.1:0", Watch: true}
	require.NoError(t, cmd.Run(deps))

	assert.Contains(t, stdout.String(), "Serving https://example.com on http://127.0.0.1:")
}
