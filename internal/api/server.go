package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
}

// NewServer creates and configures a new API server.
func NewServer(port string, svc Service, opts RouterOptions) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(svc, opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start runs the HTTP server in a new goroutine. A listen failure is sent on
// the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	log.Printf("starting HTTP server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
