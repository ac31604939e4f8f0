package sqlite_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func testResponse(url, body string) *mtgrules.Response {
	return &mtgrules.Response{
		URL:    url,
		Status: http.StatusOK,
		Type:   mtgrules.ResponseBasic,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(body),
	}
}

func TestCacheStorage_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates cache on first open", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()

		has, err := storage.Has(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		assert.False(t, has)

		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		assert.Equal(t, "mtg-rules-v1", c.Name())

		has, err = storage.Has(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("reopening returns existing entries", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()

		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		require.NoError(t, c.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "a")))

		again, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		keys, err := again.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a"}, keys)
	})

	t.Run("returns EINVALID for empty name", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))

		_, err := storage.Open(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))
	})
}

func TestCacheStorage_KeysAndDelete(t *testing.T) {
	t.Parallel()

	storage := sqlite.NewCacheStorage(setupTestDB(t))
	ctx := context.Background()

	v1, err := storage.Open(ctx, "mtg-rules-v1")
	require.NoError(t, err)
	require.NoError(t, v1.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "a")))
	_, err = storage.Open(ctx, "mtg-rules-v2")
	require.NoError(t, err)

	names, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mtg-rules-v1", "mtg-rules-v2"}, names)

	deleted, err := storage.Delete(ctx, "mtg-rules-v1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = storage.Delete(ctx, "mtg-rules-v1")
	require.NoError(t, err)
	assert.False(t, deleted)

	names, err = storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mtg-rules-v2"}, names)

	_, err = v1.Match(ctx, "https://example.com/a")
	require.Error(t, err)
	assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err), "entries are removed with their cache")
}

func TestCache_Match(t *testing.T) {
	t.Parallel()

	t.Run("round trips response byte-identically", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()
		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)

		want := testResponse("https://example.com/mtg-rules/rules.json", `{"mtgrules": []}`)
		want.Header.Add("X-Extra", "1")
		want.Header.Add("X-Extra", "2")
		require.NoError(t, c.Put(ctx, want.URL, want))

		got, err := c.Match(ctx, want.URL)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("returns ENOTFOUND for missing key", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()
		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)

		_, err = c.Match(ctx, "https://example.com/missing")
		require.Error(t, err)
		assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
	})

	t.Run("caches are isolated by name", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()
		v1, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		v2, err := storage.Open(ctx, "mtg-rules-v2")
		require.NoError(t, err)

		require.NoError(t, v1.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "a")))

		_, err = v2.Match(ctx, "https://example.com/a")
		assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
	})

	t.Run("detects corrupted body", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		storage := sqlite.NewCacheStorage(db)
		ctx := context.Background()
		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)
		require.NoError(t, c.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "a")))

		_, err = db.ExecContext(ctx, `UPDATE entries SET body = ?`, []byte("tampered"))
		require.NoError(t, err)

		_, err = c.Match(ctx, "https://example.com/a")
		require.Error(t, err)
		assert.Equal(t, mtgrules.EINTERNAL, mtgrules.ErrorCode(err))
	})
}

func TestCache_Put(t *testing.T) {
	t.Parallel()

	storage := sqlite.NewCacheStorage(setupTestDB(t))
	ctx := context.Background()
	c, err := storage.Open(ctx, "mtg-rules-v1")
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "old")))
	require.NoError(t, c.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "new")))

	got, err := c.Match(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got.Body))

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestCache_PutAll(t *testing.T) {
	t.Parallel()

	t.Run("stores every entry", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()
		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)

		err = c.PutAll(ctx, []mtgrules.Entry{
			{Key: "https://example.com/b", Response: testResponse("https://example.com/b", "b")},
			{Key: "https://example.com/a", Response: testResponse("https://example.com/a", "a")},
		})
		require.NoError(t, err)

		keys, err := c.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, keys)
	})

	t.Run("commits nothing when an entry is invalid", func(t *testing.T) {
		t.Parallel()

		storage := sqlite.NewCacheStorage(setupTestDB(t))
		ctx := context.Background()
		c, err := storage.Open(ctx, "mtg-rules-v1")
		require.NoError(t, err)

		err = c.PutAll(ctx, []mtgrules.Entry{
			{Key: "https://example.com/a", Response: testResponse("https://example.com/a", "a")},
			{Key: "https://example.com/b"},
		})
		require.Error(t, err)
		assert.Equal(t, mtgrules.EINVALID, mtgrules.ErrorCode(err))

		keys, err := c.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	storage := sqlite.NewCacheStorage(setupTestDB(t))
	ctx := context.Background()
	c, err := storage.Open(ctx, "mtg-rules-v1")
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "https://example.com/a", testResponse("https://example.com/a", "a")))

	require.NoError(t, c.Delete(ctx, "https://example.com/a"))

	err = c.Delete(ctx, "https://example.com/a")
	require.Error(t, err)
	assert.Equal(t, mtgrules.ENOTFOUND, mtgrules.ErrorCode(err))
}
