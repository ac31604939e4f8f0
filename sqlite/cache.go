package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mtgrules"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var (
	_ mtgrules.CacheStorage = (*CacheStorage)(nil)
	_ mtgrules.Cache        = (*Cache)(nil)
)

// CacheStorage implements mtgrules.CacheStorage using SQLite.
type CacheStorage struct {
	db *DB
}

// NewCacheStorage creates a new CacheStorage.
func NewCacheStorage(db *DB) *CacheStorage {
	return &CacheStorage{db: db}
}

// Open returns the named cache, creating it if it does not exist.
func (s *CacheStorage) Open(ctx context.Context, name string) (mtgrules.Cache, error) {
	if name == "" {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "cache name required")
	}
	if _, err := ensureCache(ctx, s.db.db, name); err != nil {
		return nil, err
	}
	return &Cache{db: s.db, name: name}, nil
}

// Has reports whether the named cache exists.
func (s *CacheStorage) Has(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM caches WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys returns cache names in creation order.
func (s *CacheStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM caches ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the named cache and its entries.
func (s *CacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Cache implements mtgrules.Cache on top of the entries table.
type Cache struct {
	db   *DB
	name string
}

// Name returns the cache name.
func (c *Cache) Name() string { return c.name }

// Match returns the response stored under key.
func (c *Cache) Match(ctx context.Context, key string) (*mtgrules.Response, error) {
	var (
		resp   mtgrules.Response
		typ    string
		header string
		hash   string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT e.url, e.status, e.type, e.header, e.body, e.body_hash
		FROM entries e
		JOIN caches c ON c.id = e.cache_id
		WHERE c.name = ? AND e.key = ?
	`, c.name, key).Scan(&resp.URL, &resp.Status, &typ, &header, &resp.Body, &hash)
	if err == sql.ErrNoRows {
		return nil, mtgrules.Errorf(mtgrules.ENOTFOUND, "no cached response for %s", key)
	}
	if err != nil {
		return nil, err
	}

	if hashBody(resp.Body) != hash {
		return nil, mtgrules.Errorf(mtgrules.EINTERNAL, "cached response for %s is corrupt", key)
	}
	resp.Type = mtgrules.ResponseType(typ)
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	return &resp, nil
}

// Put stores resp under key, replacing any existing entry.
func (c *Cache) Put(ctx context.Context, key string, resp *mtgrules.Response) error {
	return c.PutAll(ctx, []mtgrules.Entry{{Key: key, Response: resp}})
}

// PutAll stores all entries in a single transaction.
func (c *Cache) PutAll(ctx context.Context, entries []mtgrules.Entry) error {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cacheID, err := ensureCache(ctx, tx, c.name)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if e.Key == "" || e.Response == nil {
			return mtgrules.Errorf(mtgrules.EINVALID, "cache entry requires key and response")
		}
		header, err := json.Marshal(e.Response.Header)
		if err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
		body := e.Response.Body
		if body == nil {
			body = []byte{}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, cache_id, key, url, status, type, header, body, body_hash, stored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (cache_id, key) DO UPDATE SET
				url = excluded.url,
				status = excluded.status,
				type = excluded.type,
				header = excluded.header,
				body = excluded.body,
				body_hash = excluded.body_hash,
				stored_at = excluded.stored_at
		`, uuid.New().String(), cacheID, e.Key, e.Response.URL, e.Response.Status, string(e.Response.Type),
			string(header), body, hashBody(body), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Keys returns the keys of all entries, sorted.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT e.key
		FROM entries e
		JOIN caches c ON c.id = e.cache_id
		WHERE c.name = ?
		ORDER BY e.key
	`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes the entry under key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM entries
		WHERE key = ? AND cache_id = (SELECT id FROM caches WHERE name = ?)
	`, key, c.name)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mtgrules.Errorf(mtgrules.ENOTFOUND, "no cached response for %s", key)
	}
	return nil
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ensureCache returns the id of the named cache, creating the row if needed.
func ensureCache(ctx context.Context, q execQueryer, name string) (string, error) {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO caches (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`, uuid.New().String(), name, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return "", err
	}
	var id string
	if err := q.QueryRowContext(ctx, `SELECT id FROM caches WHERE name = ?`, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// hashBody computes xxHash of body and returns hex string.
func hashBody(body []byte) string {
	b := make([]byte, 8)
	h := xxhash.Sum64(body)
	for i := 7; i >= 0; i-- {
		b[i] = byte(h)
		h >>= 8
	}
	return hex.EncodeToString(b)
}
