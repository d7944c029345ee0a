package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/skylog-app/skylog/internal/logging"
)

// Server runs the store API with graceful shutdown on context cancellation.
type Server struct {
	address string
	handler *Handler
	log     logging.Logger
}

func NewServer(address string, handler *Handler, log logging.Logger) *Server {
	return &Server{address: address, handler: handler, log: log.With("module", "http_server")}
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "starting store server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info(ctx, "stopping store server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
