package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/cache"
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8080"

// ShutdownTimeout bounds graceful shutdown in Close.
const ShutdownTimeout = 5 * time.Second

// maxBodySize limits request bodies forwarded upstream or decoded by the API.
const maxBodySize = 1 << 20

// ResourceManager answers resource requests for the cache scope.
// *cache.Manager implements it.
type ResourceManager interface {
	Config() cache.Config
	Fetch(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error)
	Status(ctx context.Context) (cache.Status, error)
}

// Server fronts the origin: API routes are answered from the content
// service, everything else goes through the resource manager.
type Server struct {
	manager ResourceManager
	content mtgrules.ContentService
	asker   mtgrules.Asker
	logger  *slog.Logger
	addr    string

	origin   string
	basePath string

	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithServerLogger sets the logger for request errors.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server. Call Open to start listening, or use it
// directly as an http.Handler.
func NewServer(manager ResourceManager, content mtgrules.ContentService, asker mtgrules.Asker, opts ...ServerOption) *Server {
	cfg := manager.Config()
	s := &Server{
		manager:  manager,
		content:  content,
		asker:    asker,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		addr:     DefaultAddr,
		origin:   strings.TrimSuffix(cfg.Origin, "/"),
		basePath: cfg.BasePath,
	}
	for _, opt := range opts {
		opt(s)
	}

	api := s.basePath + "api/"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+api+"rules", s.handleRules)
	mux.HandleFunc("GET "+api+"rules/{number}", s.handleRule)
	mux.HandleFunc("GET "+api+"glossary", s.handleGlossary)
	mux.HandleFunc("GET "+api+"categories", s.handleCategories)
	mux.HandleFunc("GET "+api+"categories/{id}", s.handleCategory)
	mux.HandleFunc("GET "+api+"index", s.handleIndex)
	mux.HandleFunc("POST "+api+"chat", s.handleChat)
	mux.HandleFunc("GET "+api+"cache", s.handleCache)
	mux.HandleFunc(api, s.handleAPINotFound)
	mux.HandleFunc("/", s.handleResource)
	s.handler = mux

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Open starts listening on the configured address and serves in the
// background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return mtgrules.Errorf(mtgrules.EINVALID, "listen %s: %v", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Open.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleResource forwards the request to the resource manager, which
// decides between cache and network.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		Error(w, r, s.logger, mtgrules.Errorf(mtgrules.EINVALID, "read request body: %v", err))
		return
	}

	header := r.Header.Clone()
	header.Del("Accept-Encoding")
	removeHopHeaders(header)

	req := &mtgrules.Request{
		Method: r.Method,
		URL:    s.origin + r.URL.RequestURI(),
		Header: header,
		Body:   body,
	}

	resp, err := s.manager.Fetch(r.Context(), req)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}

	for k, vs := range resp.Header {
		if skipResponseHeader(k) {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func skipResponseHeader(key string) bool {
	key = http.CanonicalHeaderKey(key)
	if key == "Content-Length" {
		return true
	}
	for _, k := range hopHeaders {
		if key == k {
			return true
		}
	}
	return false
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, s.logger, mtgrules.Errorf(mtgrules.ENOTFOUND, "no route for %s %s", r.Method, r.URL.Path))
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
