package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lichecker_lookups_total",
			Help: "Total number of candidates resolved, by outcome",
		},
		[]string{"outcome"},
	)

	LookupAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lichecker_lookup_attempts",
			Help:    "Registry queries needed per resolved candidate",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
	)

	LookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lichecker_lookup_duration_seconds",
			Help:    "Duration of a lookup including retries, in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	SkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lichecker_skipped_total",
			Help: "Candidates skipped because an earlier run already resolved them",
		},
	)

	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lichecker_lookups_in_flight",
			Help: "Lookups currently waiting on the registry",
		},
	)
)

// RecordResult updates the metrics for one resolved candidate.
func RecordResult(outcome string, attempts int) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		LookupAttempts.Observe(float64(attempts))
	}
}

// ObserveLookup records the wall time of one lookup, retries included.
func ObserveLookup(elapsed time.Duration) {
	LookupDuration.Observe(elapsed.Seconds())
}

// RecordSkipped counts a candidate resolved by an earlier run.
func RecordSkipped() {
	SkippedTotal.Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "port", port, "error", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
