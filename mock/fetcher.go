package mock

import (
	"context"

	"github.com/fwojciec/mtgrules"
)

var _ mtgrules.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of mtgrules.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error)
}

func (f *Fetcher) Fetch(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error) {
	return f.FetchFn(ctx, req)
}
