// Package server exposes the scoring engine and triage workflow over HTTP:
// stateless preview scoring, issue create/fetch, building reports, liveness,
// and Prometheus metrics. Handlers forward engine input and output verbatim;
// no score-affecting logic lives at this layer.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/campusops/triagecore/internal/config"
	"github.com/campusops/triagecore/internal/observability"
)

// Server owns the HTTP listener and its middleware chain.
type Server struct {
	cfg      config.ServerConfig
	log      *zap.Logger
	metrics  *observability.Metrics
	handlers *Handlers

	httpServer *http.Server
	limiter    *rate.Limiter
}

// New assembles the router and listener around the given handlers. The rate
// limiter is a single global token bucket sized from the config.
func New(cfg config.ServerConfig, handlers *Handlers, metrics *observability.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      logger.Named("server"),
		metrics:  metrics,
		handlers: handlers,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(s.rateLimit)

	handlers.RegisterRoutes(r)

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Run serves until ctx is canceled, then drains in-flight requests within the
// configured shutdown timeout. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening.", zap.String("address", s.cfg.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, draining connections.",
		zap.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	s.log.Info("HTTP server stopped.")
	return nil
}

// Handler exposes the assembled router, for tests that drive the server
// through httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// recoverer converts handler panics into a 500 with a logged stack instead of
// a dropped connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("Handler panicked.",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"))
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger records one structured line and the request metrics per call.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		s.metrics.InFlight.Inc()
		next.ServeHTTP(ww, r)
		s.metrics.InFlight.Dec()

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.ObserveRequest(route, ww.Status())

		s.log.Debug("Request handled.",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// rateLimit applies the global token bucket. Refused requests get a JSON 429
// so callers can distinguish throttling from errors.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
