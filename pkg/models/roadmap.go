package models

import (
	"math"
	"time"
)

// Roadmap is the persisted roadmap for a user. One per user; regenerating
// replaces it.
type Roadmap struct {
	RoadmapID         string             `json:"roadmap_id"`
	UserID            string             `json:"user_id"`
	Steps             []RoadmapStep      `json:"steps"`
	AssessmentSummary []AssessmentAnswer `json:"assessment_summary"`
	IsFallback        bool               `json:"is_fallback"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// HasStep reports whether stepID belongs to the roadmap
func (r *Roadmap) HasStep(stepID string) bool {
	for _, s := range r.Steps {
		if s.StepID == stepID {
			return true
		}
	}
	return false
}

// ProgressRecord marks one roadmap step as completed
type ProgressRecord struct {
	ProgressID  string    `json:"progress_id"`
	UserID      string    `json:"user_id"`
	RoadmapID   string    `json:"roadmap_id"`
	StepID      string    `json:"step_id"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProgressSummary is the completion state of a roadmap
type ProgressSummary struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// RoadmapView is a roadmap with completion overlaid from progress records
type RoadmapView struct {
	Roadmap
	Progress ProgressSummary `json:"progress"`
}

// ChatMessage is one entry in a user's advice chat history
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ApplyProgress returns a copy of steps with Completed set from the
// completed step IDs, plus the resulting summary. IDs that match no step
// are ignored.
func ApplyProgress(steps []RoadmapStep, completed map[string]bool) ([]RoadmapStep, ProgressSummary) {
	out := CloneSteps(steps)
	if out == nil {
		out = []RoadmapStep{}
	}
	done := 0
	for i := range out {
		out[i].Completed = completed[out[i].StepID]
		if out[i].Completed {
			done++
		}
	}
	return out, Summarize(done, len(out))
}

// Summarize computes a progress summary rounded to one decimal place
func Summarize(completed, total int) ProgressSummary {
	summary := ProgressSummary{Completed: completed, Total: total}
	if total > 0 {
		summary.Percentage = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return summary
}
