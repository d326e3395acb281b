package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"contractcreator/internal/logging"
)

type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// New serves handler over HTTP/1.1 and cleartext HTTP/2.
func New(port string, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.New("server")
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              port,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Infof("starting API server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
