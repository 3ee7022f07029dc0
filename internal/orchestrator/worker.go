package orchestrator

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pathforge/pathforge/pkg/models"
)

func (o *Orchestrator) worker(
	ctx context.Context,
	workerID int,
	jobs <-chan models.BatchJob,
	results chan<- models.BatchResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	workerLogger := o.logger.With("worker_id", workerID)
	workerLogger.Debug("Worker started")

	for job := range jobs {
		select {
		case <-ctx.Done():
			workerLogger.Info("Worker cancelled")
			return
		default:
		}

		o.metrics.WorkerStarted()
		start := time.Now()
		result := o.processJob(ctx, job)
		result.Duration = time.Since(start)
		o.metrics.WorkerFinished()
		o.metrics.RecordJob(result.Duration, result.Error == nil)

		workerLogger.Debug("Job finished",
			"job_id", job.ID,
			"user_id", job.UserID,
			"duration_ms", result.Duration.Milliseconds())
		results <- result
	}

	workerLogger.Debug("Worker finished")
}

func (o *Orchestrator) processJob(ctx context.Context, job models.BatchJob) models.BatchResult {
	res, err := o.svc.GenerateRoadmapWithAnswers(ctx, job.UserID, job.Answers)
	return models.BatchResult{
		Job:       job,
		RoadmapID: res.Roadmap.RoadmapID,
		Outcome:   res.Outcome,
		Error:     err,
	}
}

func (o *Orchestrator) collectResults(total int, results <-chan models.BatchResult, wg *sync.WaitGroup) {
	defer wg.Done()

	bar := o.newProgressBar(total)
	remaining := total

	for result := range results {
		remaining--
		o.metrics.SetQueueDepth(remaining)

		writeErr := o.out.WriteRecord(result.Record())

		o.statsMu.Lock()
		switch {
		case result.Error != nil:
			o.logger.Error("Job failed", "job_id", result.Job.ID, "user_id", result.Job.UserID, "error", result.Error)
			o.stats.FailureCount++
		case writeErr != nil:
			o.logger.Error("Failed to write record", "job_id", result.Job.ID, "user_id", result.Job.UserID, "error", writeErr)
			o.stats.FailureCount++
		default:
			o.stats.SuccessCount++
			if result.Outcome.Degraded {
				o.stats.FallbackCount++
			}
			if result.Outcome.FromCache {
				o.stats.CacheHitCount++
			}
		}
		o.statsMu.Unlock()

		_ = bar.Add(1)
	}
	_ = bar.Finish()
}

func (o *Orchestrator) newProgressBar(total int) *progressbar.ProgressBar {
	w := o.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Generating roadmaps"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}
