// Package bbolt implements mtgrules.CacheStorage using bbolt (embedded B+ tree).
// Each cache gets its own top-level bucket keyed by cache name; entries are
// JSON records keyed by request URL.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mtgrules"
	bolt "go.etcd.io/bbolt"
)

// Compile-time interface verification.
var (
	_ mtgrules.CacheStorage = (*CacheStorage)(nil)
	_ mtgrules.Cache        = (*Cache)(nil)
)

// CacheStorage implements mtgrules.CacheStorage backed by bbolt.
type CacheStorage struct {
	db *bolt.DB
}

// NewCacheStorage opens (or creates) a bbolt database at the given path.
func NewCacheStorage(path string) (*CacheStorage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &CacheStorage{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *CacheStorage) Close() error {
	return s.db.Close()
}

// Open returns the named cache, creating its bucket if needed.
func (s *CacheStorage) Open(_ context.Context, name string) (mtgrules.Cache, error) {
	if name == "" {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "cache name required")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Cache{db: s.db, name: name}, nil
}

// Has reports whether the named cache bucket exists.
func (s *CacheStorage) Has(_ context.Context, name string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(name)) != nil
		return nil
	})
	return found, err
}

// Keys returns cache names in byte order.
func (s *CacheStorage) Keys(_ context.Context) ([]string, error) {
	names := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// Delete drops the named cache bucket.
func (s *CacheStorage) Delete(_ context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(name)) == nil {
			return nil
		}
		deleted = true
		return tx.DeleteBucket([]byte(name))
	})
	return deleted, err
}

// Cache implements mtgrules.Cache over a single bucket.
type Cache struct {
	db   *bolt.DB
	name string
}

// record is the stored form of a response.
type record struct {
	URL    string                `json:"url"`
	Status int                   `json:"status"`
	Type   mtgrules.ResponseType `json:"type"`
	Header http.Header           `json:"header"`
	Body   []byte                `json:"body"`
	Hash   uint64                `json:"hash"`
}

// Name returns the cache name.
func (c *Cache) Name() string { return c.name }

// Match returns the response stored under key.
func (c *Cache) Match(_ context.Context, key string) (*mtgrules.Response, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		// bbolt slices are only valid within the transaction.
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, mtgrules.Errorf(mtgrules.ENOTFOUND, "no cached response for %s", key)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	if xxhash.Sum64(rec.Body) != rec.Hash {
		return nil, mtgrules.Errorf(mtgrules.EINTERNAL, "cached response for %s is corrupt", key)
	}
	if rec.Header == nil {
		rec.Header = http.Header{}
	}
	if rec.Body == nil {
		rec.Body = []byte{}
	}
	return &mtgrules.Response{
		URL:    rec.URL,
		Status: rec.Status,
		Type:   rec.Type,
		Header: rec.Header,
		Body:   rec.Body,
	}, nil
}

// Put stores resp under key, replacing any existing entry.
func (c *Cache) Put(ctx context.Context, key string, resp *mtgrules.Response) error {
	return c.PutAll(ctx, []mtgrules.Entry{{Key: key, Response: resp}})
}

// PutAll stores all entries in a single write transaction.
func (c *Cache) PutAll(_ context.Context, entries []mtgrules.Entry) error {
	values := make([][]byte, len(entries))
	for i, e := range entries {
		if e.Key == "" || e.Response == nil {
			return mtgrules.Errorf(mtgrules.EINVALID, "cache entry requires key and response")
		}
		data, err := json.Marshal(record{
			URL:    e.Response.URL,
			Status: e.Response.Status,
			Type:   e.Response.Type,
			Header: e.Response.Header,
			Body:   e.Response.Body,
			Hash:   xxhash.Sum64(e.Response.Body),
		})
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		values[i] = data
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(c.name))
		if err != nil {
			return err
		}
		for i, e := range entries {
			if err := b.Put([]byte(e.Key), values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys returns entry keys in byte order.
func (c *Cache) Keys(_ context.Context) ([]string, error) {
	keys := []string{}
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Delete removes the entry under key.
func (c *Cache) Delete(_ context.Context, key string) error {
	var found bool
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil || b.Get([]byte(key)) == nil {
			return nil
		}
		found = true
		return b.Delete([]byte(key))
	})
	if err != nil {
		return err
	}
	if !found {
		return mtgrules.Errorf(mtgrules.ENOTFOUND, "no cached response for %s", key)
	}
	return nil
}
