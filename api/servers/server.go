package servers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/houseplants-app/plants-api/api"
	"github.com/houseplants-app/plants-api/metrics"
	"go.uber.org/atomic"
)

// RouteRegistrar mounts a handler's routes on the API router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Available(ctx context.Context) bool
}

type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	// drainStart is when the server last stopped reporting ready; zero while ready.
	drainStart atomic.Time
	log     *slog.Logger
	metrics *metrics.Metrics
	deps    Pinger

	srv        *http.Server
	metricsSrv *http.Server
}

// New builds the API and metrics servers. deps may be nil, in which case
// readiness only reflects the drain state.
func New(cfg *api.HTTPServerConfig, handler RouteRegistrar, deps Pinger) (*Server, error) {
	if cfg.Log == nil {
		return nil, errors.New("server config requires a logger")
	}
	if handler == nil {
		return nil, errors.New("server requires a route handler")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	srv := &Server{
		cfg:     cfg,
		log:     cfg.Log,
		metrics: m,
		deps:    deps,
	}
	srv.isReady.Store(true)

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.MetricsAddr != "" {
		mux := chi.NewRouter()
		mux.Handle("/metrics", m.Handler())
		srv.metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

// Handler returns the API router, mainly for tests.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

func (srv *Server) getRouter(handler RouteRegistrar) http.Handler {
	mux := chi.NewRouter()
	mux.Use(srv.httpLogger, middleware.Recoverer, srv.metrics.Middleware)

	handler.RegisterRoutes(mux)

	mux.Get("/livez", srv.handleLivenessCheck)
	mux.Get("/readyz", srv.handleReadinessCheck)
	mux.Get("/drain", srv.handleDrain)
	mux.Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive")
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	if srv.deps != nil && !srv.deps.Available(r.Context()) {
		writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		writeStatus(w, http.StatusOK, "already draining")
		return
	}

	srv.drainStart.Store(time.Now())
	srv.log.Info("Server marked as not ready", slog.Duration("drainDuration", srv.cfg.DrainDuration))
	writeStatus(w, http.StatusOK, "draining")
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		writeStatus(w, http.StatusOK, "already ready")
		return
	}

	srv.drainStart.Store(time.Time{})
	srv.log.Info("Server marked as ready")
	writeStatus(w, http.StatusOK, "ready")
}

func (srv *Server) RunInBackground() {
	if srv.metricsSrv != nil {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			if err := srv.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// drain marks the server not ready and blocks until DrainDuration has passed
// since draining began, so load balancers see /readyz fail before the
// listener closes. A drain started earlier through /drain counts toward it.
func (srv *Server) drain() {
	if srv.isReady.Swap(false) {
		srv.drainStart.Store(time.Now())
	}
	remaining := srv.cfg.DrainDuration - time.Since(srv.drainStart.Load())
	if remaining <= 0 {
		return
	}
	srv.log.Info("Draining before shutdown", slog.Duration("remaining", remaining))
	time.Sleep(remaining)
}

func (srv *Server) Shutdown() {
	srv.drain()

	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	if srv.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()
		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
