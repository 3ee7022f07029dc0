package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/invopop/jsonschema"
)

// GenerationKind selects what a generation request produces
type GenerationKind string

const (
	// KindRoadmap produces an ordered list of roadmap steps
	KindRoadmap GenerationKind = "roadmap"
	// KindAdvice produces a free-text career advice reply
	KindAdvice GenerationKind = "advice"
)

// AssessmentAnswer is one question/answer pair from a user's career assessment
type AssessmentAnswer struct {
	QuestionText   string `json:"questionText"`
	SelectedOption string `json:"selectedOption"`
}

// UnmarshalJSON accepts both the current field names and the legacy
// "question"/"answer" pair.
func (a *AssessmentAnswer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionText   *string `json:"questionText"`
		SelectedOption *string `json:"selectedOption"`
		Question       *string `json:"question"`
		Answer         *string `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = AssessmentAnswer{}
	switch {
	case raw.QuestionText != nil:
		a.QuestionText = *raw.QuestionText
	case raw.Question != nil:
		a.QuestionText = *raw.Question
	}
	switch {
	case raw.SelectedOption != nil:
		a.SelectedOption = *raw.SelectedOption
	case raw.Answer != nil:
		a.SelectedOption = *raw.Answer
	}
	return nil
}

// GenerationRequest is an immutable generation input. Build it with
// NewRoadmapRequest or NewAdviceRequest.
type GenerationRequest struct {
	Kind        GenerationKind
	UserID      string
	Answers     []AssessmentAnswer
	UserMessage string
}

// NewRoadmapRequest creates a roadmap request for userID
func NewRoadmapRequest(userID string, answers []AssessmentAnswer) GenerationRequest {
	return GenerationRequest{
		Kind:    KindRoadmap,
		UserID:  userID,
		Answers: CloneAnswers(answers),
	}
}

// NewAdviceRequest creates an advice request. Answers are optional context.
func NewAdviceRequest(userID, message string, answers []AssessmentAnswer) GenerationRequest {
	return GenerationRequest{
		Kind:        KindAdvice,
		UserID:      userID,
		Answers:     CloneAnswers(answers),
		UserMessage: message,
	}
}

// CloneAnswers returns a copy of answers, never nil
func CloneAnswers(answers []AssessmentAnswer) []AssessmentAnswer {
	out := make([]AssessmentAnswer, len(answers))
	copy(out, answers)
	return out
}

// NSQFLevel holds a step's NSQF level exactly as it was produced.
// Values outside 1-10, strings and nulls are kept untouched.
type NSQFLevel struct {
	raw json.RawMessage
}

// Level returns an NSQFLevel for n
func Level(n int) NSQFLevel {
	return NSQFLevel{raw: json.RawMessage(strconv.Itoa(n))}
}

// Int reports the level as an integer when the raw value is a JSON integer
func (l NSQFLevel) Int() (int, bool) {
	if len(l.raw) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(l.raw)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsZero reports whether no level was set
func (l NSQFLevel) IsZero() bool {
	return len(l.raw) == 0
}

// String returns the raw JSON text
func (l NSQFLevel) String() string {
	return string(l.raw)
}

// MarshalJSON writes the raw value back out
func (l NSQFLevel) MarshalJSON() ([]byte, error) {
	if len(l.raw) == 0 {
		return []byte("null"), nil
	}
	return l.raw, nil
}

// UnmarshalJSON keeps a copy of the raw value. JSON null leaves the level unset.
func (l *NSQFLevel) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		l.raw = nil
		return nil
	}
	l.raw = append(l.raw[:0], data...)
	return nil
}

// JSONSchema describes the level for prompt schemas
func (NSQFLevel) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "NSQF level from 1 to 10, progressive across steps",
	}
}

// RoadmapStep is one stage of a training roadmap
type RoadmapStep struct {
	StepID      string    `json:"step_id" jsonschema:"description=Unique identifier such as step_1"`
	Name        string    `json:"name" jsonschema:"description=Clear actionable step name"`
	NSQFLevel   NSQFLevel `json:"nsqf_level"`
	Description string    `json:"description" jsonschema:"description=Two or three sentences about what the learner gains"`
	Duration    string    `json:"duration" jsonschema:"description=Realistic timeframe such as 2 weeks"`
	Resources   []string  `json:"resources" jsonschema:"description=Specific Indian training resources"`
	Skills      []string  `json:"skills" jsonschema:"description=Key skills gained"`
	Completed   bool      `json:"completed"`
}

// Clone returns a deep copy of the step
func (s RoadmapStep) Clone() RoadmapStep {
	out := s
	out.NSQFLevel = NSQFLevel{raw: append(json.RawMessage(nil), s.NSQFLevel.raw...)}
	out.Resources = append([]string{}, s.Resources...)
	out.Skills = append([]string{}, s.Skills...)
	return out
}

// CloneSteps deep-copies a step list. A nil list stays nil.
func CloneSteps(steps []RoadmapStep) []RoadmapStep {
	if steps == nil {
		return nil
	}
	out := make([]RoadmapStep, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}

// CacheEntry is a stored generation payload
type CacheEntry struct {
	Fingerprint string
	Kind        GenerationKind
	Steps       []RoadmapStep
	Text        string
	Degraded    bool
	StoredAt    time.Time
}

// Clone returns a deep copy of the entry
func (e CacheEntry) Clone() CacheEntry {
	out := e
	out.Steps = CloneSteps(e.Steps)
	return out
}

// GenerationOutcome is what a generation call returns. Steps is set for
// roadmap requests, Text for advice requests.
type GenerationOutcome struct {
	Kind         GenerationKind `json:"kind"`
	Steps        []RoadmapStep  `json:"steps,omitempty"`
	Text         string         `json:"text,omitempty"`
	Degraded     bool           `json:"degraded"`
	AttemptsUsed int            `json:"attempts_used"`
	Model        string         `json:"model,omitempty"`
	FromCache    bool           `json:"from_cache"`
	Fingerprint  string         `json:"fingerprint"`
}

// BatchJob is one user queued for batch roadmap generation
type BatchJob struct {
	ID      int                `json:"-"`
	UserID  string             `json:"user_id"`
	Answers []AssessmentAnswer `json:"answers"`
}

// BatchResult is the result of one batch job
type BatchResult struct {
	Job       BatchJob
	RoadmapID string
	Outcome   GenerationOutcome
	Error     error
	Duration  time.Duration
}

// Record converts the result to its output line
func (r BatchResult) Record() BatchRecord {
	rec := BatchRecord{
		UserID:       r.Job.UserID,
		RoadmapID:    r.RoadmapID,
		Steps:        r.Outcome.Steps,
		IsFallback:   r.Outcome.Degraded,
		AttemptsUsed: r.Outcome.AttemptsUsed,
		FromCache:    r.Outcome.FromCache,
	}
	if r.Error != nil {
		rec.Error = r.Error.Error()
	}
	if rec.Steps == nil {
		rec.Steps = []RoadmapStep{}
	}
	return rec
}

// BatchRecord is one line of batch output
type BatchRecord struct {
	UserID       string        `json:"user_id"`
	RoadmapID    string        `json:"roadmap_id,omitempty"`
	Steps        []RoadmapStep `json:"steps"`
	IsFallback   bool          `json:"is_fallback"`
	AttemptsUsed int           `json:"attempts_used"`
	FromCache    bool          `json:"from_cache"`
	Error        string        `json:"error,omitempty"`
}

// SessionStats tracks statistics for a batch session
type SessionStats struct {
	TotalJobs      int           `json:"total_jobs"`
	SkippedJobs    int           `json:"skipped_jobs"`
	SuccessCount   int           `json:"success_count"`
	FallbackCount  int           `json:"fallback_count"`
	CacheHitCount  int           `json:"cache_hit_count"`
	FailureCount   int           `json:"failure_count"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	TotalDuration  time.Duration `json:"total_duration_ns"`
	AverageJobTime time.Duration `json:"average_job_time_ns"`
}
