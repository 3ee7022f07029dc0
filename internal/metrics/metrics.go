// Package metrics exposes Prometheus metrics for generation and batch runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt results
const (
	ResultSuccess     = "success"
	ResultQuota       = "quota"
	ResultModelError  = "model_error"
	ResultMalformed   = "malformed"
	ResultUnavailable = "unavailable"
)

// Outcome sources
const (
	SourceModel    = "model"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathforge_cache_lookups_total",
			Help: "Generation cache lookups by kind and result",
		},
		[]string{"kind", "result"}, // result: "hit"/"miss"
	)

	generationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathforge_generation_attempts_total",
			Help: "Generation attempts by model and result",
		},
		[]string{"model", "result"},
	)

	modelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathforge_model_request_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "status"},
	)

	backoffWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathforge_quota_backoff_seconds",
			Help:    "Time spent waiting after quota errors",
			Buckets: []float64{1, 5, 10, 20, 40, 60},
		},
	)

	generationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathforge_generation_outcomes_total",
			Help: "Completed generations by kind and source",
		},
		[]string{"kind", "source"}, // source: "model"/"cache"/"fallback"
	)

	batchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pathforge_batch_queue_depth",
			Help: "Jobs waiting in the batch queue",
		},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pathforge_batch_active_workers",
			Help: "Batch workers currently processing a job",
		},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathforge_batch_job_duration_seconds",
			Help:    "Batch job duration by status",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"status"},
	)
)

// Collector records metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordCacheLookup counts a cache hit or miss
func (c *Collector) RecordCacheLookup(kind string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordAttempt counts one pass through the generation loop
func (c *Collector) RecordAttempt(model, result string) {
	if c == nil {
		return
	}
	if model == "" {
		model = "none"
	}
	generationAttempts.WithLabelValues(model, result).Inc()
}

// RecordModelCall records a model call duration
func (c *Collector) RecordModelCall(model string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	modelLatency.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordBackoff records a quota backoff wait
func (c *Collector) RecordBackoff(wait time.Duration) {
	if c == nil {
		return
	}
	backoffWait.Observe(wait.Seconds())
}

// RecordOutcome counts a finished generation
func (c *Collector) RecordOutcome(kind, source string) {
	if c == nil {
		return
	}
	generationOutcomes.WithLabelValues(kind, source).Inc()
}

// SetQueueDepth sets the number of queued batch jobs
func (c *Collector) SetQueueDepth(depth int) {
	if c == nil {
		return
	}
	batchQueueDepth.Set(float64(depth))
}

// WorkerStarted marks a worker busy
func (c *Collector) WorkerStarted() {
	if c == nil {
		return
	}
	activeWorkers.Inc()
}

// WorkerFinished marks a worker idle
func (c *Collector) WorkerFinished() {
	if c == nil {
		return
	}
	activeWorkers.Dec()
}

// RecordJob records a batch job duration
func (c *Collector) RecordJob(duration time.Duration, success bool) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	jobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && c != nil {
			c.logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	if c != nil {
		c.logger.Info("Serving metrics", "addr", addr, "path", "/metrics")
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
