package infra

import (
	"context"
	"net/http"
	"time"
)

// streamGrace is how much longer than the polling horizon a generation
// stream is allowed to stay open, covering submit retries and persistence.
const streamGrace = 30 * time.Second

// HTTPServer wraps http.Server with graceful startup and shutdown helpers.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server. The generation endpoint holds its NDJSON
// response open for the whole polling loop, so the write timeout is raised to
// the polling horizon plus grace when the configured value is shorter;
// otherwise the stream would be cut mid-generation.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	writeTimeout := cfg.HTTPWriteTimeout
	if floor := StreamWriteTimeout(cfg); writeTimeout < floor {
		writeTimeout = floor
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// StreamWriteTimeout is the minimum write timeout that lets a generation
// stream run its full polling loop.
func StreamWriteTimeout(cfg *Config) time.Duration {
	return cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + streamGrace
}

// Start runs the HTTP server in the current goroutine.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
