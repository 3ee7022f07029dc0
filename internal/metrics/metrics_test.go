package metrics

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(slog.New(slog.NewTextHandler(io.Discard, nil)))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("roadmap", "hit"))
	c.RecordCacheLookup("roadmap", true)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("roadmap", "hit")); got != hits+1 {
		t.Errorf("Expected hit counter %v, got %v", hits+1, got)
	}

	none := testutil.ToFloat64(generationAttempts.WithLabelValues("none", ResultUnavailable))
	c.RecordAttempt("", ResultUnavailable)
	if got := testutil.ToFloat64(generationAttempts.WithLabelValues("none", ResultUnavailable)); got != none+1 {
		t.Errorf("Expected unlabelled model to count as none, got %v", got)
	}

	fallbacks := testutil.ToFloat64(generationOutcomes.WithLabelValues("advice", SourceFallback))
	c.RecordOutcome("advice", SourceFallback)
	if got := testutil.ToFloat64(generationOutcomes.WithLabelValues("advice", SourceFallback)); got != fallbacks+1 {
		t.Errorf("Expected fallback counter %v, got %v", fallbacks+1, got)
	}

	c.WorkerStarted()
	c.WorkerStarted()
	c.WorkerFinished()
	if got := testutil.ToFloat64(activeWorkers); got < 1 {
		t.Errorf("Expected at least one active worker, got %v", got)
	}
	c.WorkerFinished()
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.RecordCacheLookup("roadmap", false)
	c.RecordAttempt("m", ResultSuccess)
	c.RecordModelCall("m", time.Second, true)
	c.RecordBackoff(5 * time.Second)
	c.RecordOutcome("roadmap", SourceModel)
	c.SetQueueDepth(3)
	c.WorkerStarted()
	c.WorkerFinished()
	c.RecordJob(time.Second, false)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	NewCollector(slog.Default()).RecordBackoff(5 * time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "pathforge_quota_backoff_seconds") {
		t.Error("Expected backoff histogram in scrape output")
	}
}
