// Package server exposes the lookup cache over HTTP for scripts and
// dashboards: a JSON search endpoint, cache statistics, a health probe and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/countryscope/internal/country"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
	"github.com/Aman-CERP/countryscope/internal/lookup"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Lookup is the part of lookup.Fetcher the server needs.
type Lookup interface {
	CountryDetails(ctx context.Context, name string) country.ResultSet
	Stats() lookup.Stats
	Purge()
}

// Server serves country lookups over HTTP.
type Server struct {
	lookup  Lookup
	metrics *Metrics
	logger  *slog.Logger
	router  chi.Router

	profiler bool
	upstream func() string
}

// Option configures a Server.
type Option func(*Server)

// WithProfiler mounts net/http/pprof under /debug.
func WithProfiler() Option {
	return func(s *Server) {
		s.profiler = true
	}
}

// WithUpstreamState reports the upstream circuit state on /healthz.
func WithUpstreamState(state func() string) Option {
	return func(s *Server) {
		s.upstream = state
	}
}

// New builds the router. metrics may be nil, in which case /metrics is not
// mounted.
func New(l Lookup, metrics *Metrics, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		lookup:  l,
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Get("/countries/search", s.handleSearch)
		r.Get("/cache/stats", s.handleStats)
		r.Delete("/cache", s.handlePurge)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	if s.profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return scerrors.New(scerrors.ErrCodeNetworkUnavailable, "cannot listen on "+addr, err).
			WithSuggestion("pick another address with --addr")
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_started", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return scerrors.New(scerrors.ErrCodeInternal, "graceful shutdown failed", err)
	}
	s.logger.Info("server_stopped")
	return nil
}

// handleSearch answers GET /api/countries/search?name=. Lookup failures
// produce an empty array, never an error status.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		err := scerrors.New(scerrors.ErrCodeQueryEmpty, "query parameter 'name' is required", nil)
		body, _ := scerrors.FormatJSON(err)
		s.writeJSON(w, r, http.StatusBadRequest, json.RawMessage(body))
		return
	}

	s.writeJSON(w, r, http.StatusOK, s.lookup.CountryDetails(r.Context(), name))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.lookup.Stats())
}

// handlePurge answers DELETE /api/cache with the number of dropped entries.
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	purged := s.lookup.Stats().Entries
	s.lookup.Purge()
	s.logger.Info("cache_purged", slog.Int("entries", purged))
	s.writeJSON(w, r, http.StatusOK, map[string]int{"purged": purged})
}

// handleHealth stays 200 while the upstream circuit is open; lookups still
// answer, just with empty results.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.upstream != nil {
		body["upstream"] = s.upstream()
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response_encode_failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
	}
}

// accessLog logs each request and feeds the HTTP metrics.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(route, ww.Status(), elapsed)

		s.logger.Debug("http_request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", elapsed))
	})
}
