package mtgrules

import (
	"context"
	"net/http"
	"strings"
)

// ResponseType classifies a network response by origin, mirroring the
// response types of the browser fetch model.
type ResponseType string

// Response types.
const (
	// ResponseBasic is a same-origin response.
	ResponseBasic ResponseType = "basic"

	// ResponseOpaque is a cross-origin response.
	ResponseOpaque ResponseType = "opaque"

	// ResponseOpaqueRedirect is a redirect that was not followed.
	ResponseOpaqueRedirect ResponseType = "opaqueredirect"
)

// Request is a resource request as seen by the cache manager.
type Request struct {
	Method string
	URL    string // absolute
	Header http.Header
	Body   []byte
}

// NewRequest returns a GET request for url.
func NewRequest(url string) *Request {
	return &Request{Method: http.MethodGet, URL: url, Header: http.Header{}}
}

// AcceptsHTML reports whether the request's Accept header asks for an
// HTML document.
func (r *Request) AcceptsHTML() bool {
	if r.Header == nil {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Response is a fully-read resource response.
type Response struct {
	URL    string       `json:"url"`
	Status int          `json:"status"`
	Type   ResponseType `json:"type"`
	Header http.Header  `json:"header"`
	Body   []byte       `json:"-"`
}

// Cacheable reports whether the response may be stored: a same-origin
// response with status 200.
func (r *Response) Cacheable() bool {
	return r != nil && r.Status == http.StatusOK && r.Type == ResponseBasic
}

// Clone returns a deep copy of the response, including its body.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = make([]byte, len(r.Body))
		copy(out.Body, r.Body)
	}
	return &out
}

// Fetcher performs network requests.
type Fetcher interface {
	// Fetch performs the request and returns the fully-read response.
	// Non-success statuses are returned as responses, not errors; an error
	// means the network request itself failed.
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// Entry is a keyed response stored in a cache.
type Entry struct {
	Key      string
	Response *Response
}

// Cache is a single named store of responses keyed by request URL.
type Cache interface {
	// Name returns the cache name.
	Name() string

	// Match returns the response stored under key.
	// Returns ENOTFOUND if there is no entry.
	Match(ctx context.Context, key string) (*Response, error)

	// Put stores a response under key, replacing any existing entry.
	Put(ctx context.Context, key string, resp *Response) error

	// PutAll stores all entries atomically: either every entry is
	// committed or none is.
	PutAll(ctx context.Context, entries []Entry) error

	// Keys returns the keys of all stored entries.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes the entry under key. Returns ENOTFOUND if there is
	// no entry.
	Delete(ctx context.Context, key string) error
}

// CacheStorage manages named caches.
type CacheStorage interface {
	// Open returns the named cache, creating it if it does not exist.
	Open(ctx context.Context, name string) (Cache, error)

	// Has reports whether a cache with the given name exists.
	Has(ctx context.Context, name string) (bool, error)

	// Keys returns the names of all caches.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes the named cache and all of its entries.
	// Returns false if no such cache existed.
	Delete(ctx context.Context, name string) (bool, error)
}

// AssetExtractor discovers static asset URLs referenced by an HTML page.
type AssetExtractor interface {
	// ExtractAssets returns absolute asset URLs referenced by html that
	// share the origin of pageURL and whose path starts with prefix.
	ExtractAssets(html string, pageURL string, prefix string) ([]string, error)
}
