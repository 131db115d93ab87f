package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer owns the listener lifecycle around the router.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server from config. Generation endpoints hold a
// request open across the whole provider poll loop, which is why the write
// timeout comes straight from config (zero disables it) instead of a fixed
// default.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
