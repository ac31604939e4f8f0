// Package http provides the network side of mtgrules: an origin-aware
// mtgrules.Fetcher and the HTTP server fronting the cache manager and the
// query engines.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/mtgrules"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements mtgrules.Fetcher at compile time.
var _ mtgrules.Fetcher = (*Fetcher)(nil)

// Fetcher performs network requests and classifies responses relative to
// an origin. Redirects are not followed; they are returned as
// opaqueredirect responses for the caller to pass on.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	origin    *url.URL
	transport http.RoundTripper
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithOrigin sets the origin responses are classified against. Responses
// for URLs on another scheme or host are opaque. Without an origin every
// response is basic.
func WithOrigin(origin string) Option {
	return func(f *Fetcher) {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			f.origin = u
		}
	}
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: f.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return f
}

// Fetch performs req and returns the fully-read response. Non-2xx statuses
// are responses, not errors.
func (f *Fetcher) Fetch(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, mtgrules.Errorf(mtgrules.EINVALID, "invalid request for %s: %v", req.URL, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}

	return &mtgrules.Response{
		URL:    req.URL,
		Status: resp.StatusCode,
		Type:   f.classify(httpReq.URL, resp.StatusCode),
		Header: resp.Header,
		Body:   data,
	}, nil
}

func (f *Fetcher) classify(u *url.URL, status int) mtgrules.ResponseType {
	switch {
	case isRedirect(status):
		return mtgrules.ResponseOpaqueRedirect
	case f.origin != nil && (u.Scheme != f.origin.Scheme || u.Host != f.origin.Host):
		return mtgrules.ResponseOpaque
	default:
		return mtgrules.ResponseBasic
	}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
