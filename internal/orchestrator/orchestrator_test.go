package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge/internal/metrics"
	"github.com/pathforge/pathforge/internal/service"
	"github.com/pathforge/pathforge/pkg/models"
)

type fakeService struct {
	calls   atomic.Int32
	fail    map[string]bool
	degrade map[string]bool
	cached  map[string]bool
	block   chan struct{}
}

func (f *fakeService) GenerateRoadmapWithAnswers(ctx context.Context, userID string, answers []models.AssessmentAnswer) (service.RoadmapResult, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.fail[userID] {
		return service.RoadmapResult{}, errors.New("store down")
	}
	steps := []models.RoadmapStep{{StepID: "step_1", Name: "Start", Skills: []string{}, Resources: []string{}}}
	return service.RoadmapResult{
		Roadmap: models.Roadmap{RoadmapID: "rm-" + userID, UserID: userID, Steps: steps},
		Outcome: models.GenerationOutcome{
			Kind:         models.KindRoadmap,
			Steps:        steps,
			Degraded:     f.degrade[userID],
			FromCache:    f.cached[userID],
			AttemptsUsed: 1,
		},
	}, nil
}

type memoryWriter struct {
	mu      sync.Mutex
	records []models.BatchRecord
	err     error
}

func (w *memoryWriter) WriteRecord(rec models.BatchRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.records = append(w.records, rec)
	return nil
}

func (w *memoryWriter) byUser() map[string]models.BatchRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]models.BatchRecord, len(w.records))
	for _, r := range w.records {
		out[r.UserID] = r
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jobsFor(users ...string) []models.BatchJob {
	jobs := make([]models.BatchJob, len(users))
	for i, u := range users {
		jobs[i] = models.BatchJob{ID: i, UserID: u}
	}
	return jobs
}

func TestRun_CountsOutcomes(t *testing.T) {
	svc := &fakeService{
		fail:    map[string]bool{"u3": true},
		degrade: map[string]bool{"u2": true},
		cached:  map[string]bool{"u4": true},
	}
	out := &memoryWriter{}
	o := New(svc, out, 3, testLogger(), WithMetrics(metrics.NewCollector(testLogger())))

	stats, err := o.Run(context.Background(), jobsFor("u1", "u2", "u3", "u4"), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalJobs)
	assert.Equal(t, 3, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 1, stats.FallbackCount)
	assert.Equal(t, 1, stats.CacheHitCount)
	assert.False(t, stats.EndTime.Before(stats.StartTime))

	records := out.byUser()
	require.Len(t, records, 4)
	assert.Equal(t, "store down", records["u3"].Error)
	assert.NotNil(t, records["u3"].Steps)
	assert.True(t, records["u2"].IsFallback)
	assert.Equal(t, "rm-u1", records["u1"].RoadmapID)
}

func TestRun_SkipsCompletedUsers(t *testing.T) {
	svc := &fakeService{}
	out := &memoryWriter{}
	o := New(svc, out, 2, testLogger())

	stats, err := o.Run(context.Background(), jobsFor("a", "b", "c"), map[string]bool{"b": true})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 1, stats.SkippedJobs)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.EqualValues(t, 2, svc.calls.Load())
	_, ok := out.byUser()["b"]
	assert.False(t, ok)
}

func TestRun_WriteFailureCountsAsFailure(t *testing.T) {
	o := New(&fakeService{}, &memoryWriter{err: errors.New("disk full")}, 1, testLogger())

	stats, err := o.Run(context.Background(), jobsFor("a", "b"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SuccessCount)
	assert.Equal(t, 2, stats.FailureCount)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeService{}
	o := New(svc, &memoryWriter{}, 2, testLogger())
	stats, err := o.Run(ctx, jobsFor("a", "b", "c"), nil)

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.EqualValues(t, 0, svc.calls.Load())
}

func TestRun_ConcurrencyFloor(t *testing.T) {
	o := New(&fakeService{}, &memoryWriter{}, 0, testLogger())
	assert.Equal(t, 1, o.concurrency)
}

func TestRun_ProgressOutput(t *testing.T) {
	var buf bytes.Buffer
	o := New(&fakeService{}, &memoryWriter{}, 1, testLogger(), WithProgressOutput(&buf))

	_, err := o.Run(context.Background(), jobsFor("a"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestReadJobs(t *testing.T) {
	input := strings.Join([]string{
		`# seeded users`,
		`{"user_id": "u1", "answers": [{"questionText": "Interest?", "selectedOption": "Welding"}]}`,
		``,
		`{"user_id": " u2 ", "answers": [{"question": "Goal?", "answer": "Job"}]}`,
		`{"user_id": "u1", "answers": []}`,
		`{"user_id": "u3"}`,
	}, "\n")

	jobs, err := ReadJobs(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "u1", jobs[0].UserID)
	assert.Equal(t, "Welding", jobs[0].Answers[0].SelectedOption)
	assert.Equal(t, "u2", jobs[1].UserID)
	assert.Equal(t, 1, jobs[1].ID)
	assert.Equal(t, "Goal?", jobs[1].Answers[0].QuestionText)
	assert.NotNil(t, jobs[2].Answers)
	assert.Empty(t, jobs[2].Answers)
}

func TestReadJobs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad json", `{"user_id": `, "line 1"},
		{"missing user", "\n{\"answers\": []}", "line 2: user_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJobs(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
