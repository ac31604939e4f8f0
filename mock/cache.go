package mock

import (
	"context"

	"github.com/fwojciec/mtgrules"
)

var (
	_ mtgrules.Cache        = (*Cache)(nil)
	_ mtgrules.CacheStorage = (*CacheStorage)(nil)
)

// Cache is a mock implementation of mtgrules.Cache.
type Cache struct {
	NameFn   func() string
	MatchFn  func(ctx context.Context, key string) (*mtgrules.Response, error)
	PutFn    func(ctx context.Context, key string, resp *mtgrules.Response) error
	PutAllFn func(ctx context.Context, entries []mtgrules.Entry) error
	KeysFn   func(ctx context.Context) ([]string, error)
	DeleteFn func(ctx context.Context, key string) error
}

func (c *Cache) Name() string {
	return c.NameFn()
}

func (c *Cache) Match(ctx context.Context, key string) (*mtgrules.Response, error) {
	return c.MatchFn(ctx, key)
}

func (c *Cache) Put(ctx context.Context, key string, resp *mtgrules.Response) error {
	return c.PutFn(ctx, key, resp)
}

func (c *Cache) PutAll(ctx context.Context, entries []mtgrules.Entry) error {
	return c.PutAllFn(ctx, entries)
}

func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.KeysFn(ctx)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.DeleteFn(ctx, key)
}

// CacheStorage is a mock implementation of mtgrules.CacheStorage.
type CacheStorage struct {
	OpenFn   func(ctx context.Context, name string) (mtgrules.Cache, error)
	HasFn    func(ctx context.Context, name string) (bool, error)
	KeysFn   func(ctx context.Context) ([]string, error)
	DeleteFn func(ctx context.Context, name string) (bool, error)
}

func (s *CacheStorage) Open(ctx context.Context, name string) (mtgrules.Cache, error) {
	return s.OpenFn(ctx, name)
}

func (s *CacheStorage) Has(ctx context.Context, name string) (bool, error) {
	return s.HasFn(ctx, name)
}

func (s *CacheStorage) Keys(ctx context.Context) ([]string, error) {
	return s.KeysFn(ctx)
}

func (s *CacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	return s.DeleteFn(ctx, name)
}
