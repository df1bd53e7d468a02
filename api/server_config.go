package api

import (
	"log/slog"
	"time"

	"github.com/houseplants-app/plants-api/metrics"
)

// HTTPServerConfig configures the API listener and the separate metrics listener.
type HTTPServerConfig struct {
	// ListenAddr is where the plants API is served.
	ListenAddr string

	// MetricsAddr serves /metrics. Empty disables the metrics listener;
	// request metrics are still collected.
	MetricsAddr string

	// Metrics receives HTTP and store observations. A fresh registry is
	// created when nil.
	Metrics *metrics.Metrics

	// EnablePprof mounts the pprof API under /debug.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long the server reports not ready before Shutdown
	// closes the listeners. Time already spent draining through /drain counts.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds how long Shutdown waits for in-flight requests.
	GracefulShutdownDuration time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
