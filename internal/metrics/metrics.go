// Package metrics exposes Prometheus instrumentation for the research engine
// and an optional /metrics HTTP server.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concorrente_search_requests_total",
			Help: "Search provider requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	JobSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concorrente_job_submissions_total",
			Help: "Scrape job submissions by outcome",
		},
		[]string{"outcome"},
	)

	JobPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concorrente_job_polls_total",
			Help: "Scrape job status polls by reported status",
		},
		[]string{"status"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "concorrente_job_duration_seconds",
			Help:    "Wall-clock duration of scrape jobs from submission to terminal status",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	VisionAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concorrente_vision_analyses_total",
			Help: "Per-item vision analyses by outcome",
		},
		[]string{"outcome"},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concorrente_phase_duration_seconds",
			Help:    "Duration of each pipeline phase",
			Buckets: []float64{0.5, 1, 5, 15, 60, 180, 600},
		},
		[]string{"phase"},
	)

	SnapshotFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concorrente_snapshot_fetches_total",
			Help: "Competitor website snapshot fetches by outcome",
		},
		[]string{"outcome"},
	)
)

// ObservePhase records the duration of one pipeline phase.
func ObservePhase(phase string, d time.Duration) {
	PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Server exposes the Prometheus registry over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins listening on the given port and serves /metrics. Errors after
// startup are printed, not returned; the engine must not die with its
// instrumentation.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
