// Package orchestrator generates roadmaps for many users with a worker pool.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pathforge/pathforge/internal/metrics"
	"github.com/pathforge/pathforge/internal/service"
	"github.com/pathforge/pathforge/pkg/models"
)

// RoadmapService generates and saves one roadmap
type RoadmapService interface {
	GenerateRoadmapWithAnswers(ctx context.Context, userID string, answers []models.AssessmentAnswer) (service.RoadmapResult, error)
}

// RecordWriter receives one record per finished job
type RecordWriter interface {
	WriteRecord(record models.BatchRecord) error
}

// Orchestrator runs batch jobs through the roadmap service
type Orchestrator struct {
	svc         RoadmapService
	out         RecordWriter
	concurrency int
	metrics     *metrics.Collector
	logger      *slog.Logger
	progress    io.Writer

	statsMu sync.Mutex
	stats   *models.SessionStats
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMetrics records queue and worker metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

// WithProgressOutput sets where the progress bar is drawn. nil disables it.
func WithProgressOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.progress = w }
}

// New creates an orchestrator with the given worker count
func New(svc RoadmapService, out RecordWriter, concurrency int, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:         svc,
		out:         out,
		concurrency: max(1, concurrency),
		logger:      logger,
		stats:       &models.SessionStats{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes jobs, skipping users in skip. It returns once every started
// job is written; cancelling ctx stops workers from taking new jobs.
func (o *Orchestrator) Run(ctx context.Context, jobs []models.BatchJob, skip map[string]bool) (*models.SessionStats, error) {
	pending := make([]models.BatchJob, 0, len(jobs))
	for _, job := range jobs {
		if skip[job.UserID] {
			continue
		}
		pending = append(pending, job)
	}

	o.stats = &models.SessionStats{
		TotalJobs:   len(jobs),
		SkippedJobs: len(jobs) - len(pending),
		StartTime:   time.Now(),
	}

	o.logger.Info("Starting batch roadmap generation",
		"total_jobs", len(jobs),
		"pending", len(pending),
		"skipped", o.stats.SkippedJobs,
		"concurrency", o.concurrency)

	jobsChan := make(chan models.BatchJob, len(pending))
	resultsChan := make(chan models.BatchResult, len(pending))

	var wg sync.WaitGroup
	wg.Add(o.concurrency)
	for i := 0; i < o.concurrency; i++ {
		go o.worker(ctx, i, jobsChan, resultsChan, &wg)
	}

	for _, job := range pending {
		jobsChan <- job
	}
	close(jobsChan)
	o.metrics.SetQueueDepth(len(pending))

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go o.collectResults(len(pending), resultsChan, &collectorWg)

	wg.Wait()
	close(resultsChan)
	collectorWg.Wait()

	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	o.stats.EndTime = time.Now()
	o.stats.TotalDuration = o.stats.EndTime.Sub(o.stats.StartTime)
	if processed := o.stats.SuccessCount + o.stats.FailureCount; processed > 0 {
		o.stats.AverageJobTime = o.stats.TotalDuration / time.Duration(processed)
	}

	o.logger.Info("Batch completed",
		"successful", o.stats.SuccessCount,
		"fallback", o.stats.FallbackCount,
		"cache_hits", o.stats.CacheHitCount,
		"failed", o.stats.FailureCount,
		"duration", o.stats.TotalDuration)

	stats := *o.stats
	if err := ctx.Err(); err != nil {
		return &stats, fmt.Errorf("batch interrupted: %w", err)
	}
	return &stats, nil
}
