package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Viargos/Backend-sub000/internal/app/server/handlers"
	"github.com/Viargos/Backend-sub000/internal/metrics"
	"github.com/Viargos/Backend-sub000/pkg/middleware"
)

type Server struct {
	log       *slog.Logger
	mux       *http.ServeMux
	name      string
	addr      string
	wsHandler *handlers.WSHandler
	verifier  middleware.TokenVerifier
	collector *metrics.Collector
	httpSrv   *http.Server
}

func NewServer(
	log *slog.Logger,
	name, addr string,
	verifier middleware.TokenVerifier,
	wsHandler *handlers.WSHandler,
	collector *metrics.Collector,
	authWindow time.Duration,
) *Server {
	s := &Server{
		log:       log,
		mux:       http.NewServeMux(),
		name:      name,
		addr:      addr,
		wsHandler: wsHandler,
		verifier:  verifier,
		collector: collector,
	}
	s.routes()
	if authWindow <= 0 {
		authWindow = 15 * time.Second
	}
	s.httpSrv = &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
		// ReadHeaderTimeout bounds the authentication window: a
		// connection that has not completed its handshake within it
		// never reaches the gateway.
		ReadHeaderTimeout: authWindow,
	}
	return s
}

func (s *Server) routes() {
	trace := middleware.TracerMiddleware(s.name)
	logreq := middleware.RequestLogger(s.log)
	auth := middleware.AuthMiddleware(s.verifier)

	// The credential is validated before the upgrade; an invalid or
	// missing token is refused with no registry mutation.
	s.mux.Handle("/ws", trace(logreq(auth(http.HandlerFunc(s.wsHandler.Handler)))))
	s.mux.Handle("/metrics", s.collector.Handler())
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Start serves until the context is cancelled, then drains gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	return s.httpSrv.Shutdown(shutdownCtx)
}
