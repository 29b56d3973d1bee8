package infra

import (
	"context"
	"net/http"
)

// HTTPServer owns the process's single http.Server so the listen address,
// timeouts and shutdown path all come from one Config.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds the server around the router. Write and idle timeouts
// are generous because a POST generation holds the connection through
// several provider round trips.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Addr reports the listen address for startup logging.
func (s *HTTPServer) Addr() string {
	if s.srv == nil {
		return ""
	}
	return s.srv.Addr
}

// Start serves requests until Shutdown; a clean shutdown surfaces as
// http.ErrServerClosed.
func (s *HTTPServer) Start() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
