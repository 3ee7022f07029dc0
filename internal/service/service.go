// Package service combines assessment lookup, generation and persistence
// into the user-facing roadmap, progress and advice operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge/internal/store"
	"github.com/pathforge/pathforge/pkg/models"
)

// Status messages
const (
	MsgRoadmapGenerated = "Roadmap generated successfully"
	MsgRoadmapFallback  = "Roadmap generated using fallback mode"
	MsgStepCompleted    = "Step marked as completed"
	MsgStepIncomplete   = "Step marked as incomplete"
)

// summaryAnswers is how many answers are kept with a saved roadmap
const summaryAnswers = 3

var (
	// ErrInvalidInput is returned for missing user IDs, step IDs or messages
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoAssessment is returned when an assessment is required but empty
	ErrNoAssessment = errors.New("no assessment found, please complete the career assessment first")
	// ErrRoadmapNotFound is returned when the user has no roadmap
	ErrRoadmapNotFound = errors.New("roadmap not found")
	// ErrStepNotFound is returned when a step ID is not part of the user's roadmap
	ErrStepNotFound = errors.New("step not found in roadmap")
)

// Generator produces roadmaps and advice. It never fails.
type Generator interface {
	GenerateRoadmap(ctx context.Context, userID string, answers []models.AssessmentAnswer) models.GenerationOutcome
	Advise(ctx context.Context, userID, message string, answers []models.AssessmentAnswer) models.GenerationOutcome
}

// Assessments looks up a user's answers
type Assessments interface {
	Fetch(ctx context.Context, userID string) ([]models.AssessmentAnswer, error)
}

// Service implements the roadmap, progress and advice operations
type Service struct {
	gen         Generator
	assessments Assessments
	store       store.Store
	logger      *slog.Logger

	requireAssessment bool
	now               func() time.Time
	newID             func() string
}

// Option configures a Service
type Option func(*Service)

// WithRequireAssessment makes GenerateRoadmap fail with ErrNoAssessment
// instead of producing a general roadmap for users without answers
func WithRequireAssessment(require bool) Option {
	return func(s *Service) { s.requireAssessment = require }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the uuid generator for roadmap and progress IDs
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a service
func New(gen Generator, assessments Assessments, st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gen:         gen,
		assessments: assessments,
		store:       st,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RoadmapResult is a freshly generated and saved roadmap
type RoadmapResult struct {
	Roadmap models.Roadmap           `json:"roadmap"`
	Message string                   `json:"message"`
	Outcome models.GenerationOutcome `json:"-"`
}

// ProgressResult is the outcome of a progress update
type ProgressResult struct {
	StepID    string                 `json:"step_id"`
	Completed bool                   `json:"completed"`
	Message   string                 `json:"message"`
	Progress  models.ProgressSummary `json:"progress"`
}

// AdviceResult is an advice reply
type AdviceResult struct {
	Response  string    `json:"response"`
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateRoadmap fetches the user's assessment, generates a roadmap and
// saves it, replacing any previous one
func (s *Service) GenerateRoadmap(ctx context.Context, userID string) (RoadmapResult, error) {
	if strings.TrimSpace(userID) == "" {
		return RoadmapResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	answers := s.fetchAnswers(ctx, userID)
	if len(answers) == 0 && s.requireAssessment {
		return RoadmapResult{}, ErrNoAssessment
	}
	return s.GenerateRoadmapWithAnswers(ctx, userID, answers)
}

// GenerateRoadmapWithAnswers generates and saves a roadmap from known answers
func (s *Service) GenerateRoadmapWithAnswers(ctx context.Context, userID string, answers []models.AssessmentAnswer) (RoadmapResult, error) {
	if strings.TrimSpace(userID) == "" {
		return RoadmapResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	outcome := s.gen.GenerateRoadmap(ctx, userID, answers)

	now := s.now()
	roadmap := models.Roadmap{
		RoadmapID:         s.newID(),
		UserID:            userID,
		Steps:             outcome.Steps,
		AssessmentSummary: models.CloneAnswers(answers[:min(len(answers), summaryAnswers)]),
		IsFallback:        outcome.Degraded,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.SaveRoadmap(ctx, roadmap); err != nil {
		return RoadmapResult{}, fmt.Errorf("failed to save roadmap: %w", err)
	}

	s.logger.Info("Roadmap saved",
		"user_id", userID,
		"roadmap_id", roadmap.RoadmapID,
		"steps", len(roadmap.Steps),
		"fallback", roadmap.IsFallback,
		"from_cache", outcome.FromCache)

	msg := MsgRoadmapGenerated
	if outcome.Degraded {
		msg = MsgRoadmapFallback
	}
	return RoadmapResult{Roadmap: roadmap, Message: msg, Outcome: outcome}, nil
}

// GetRoadmap returns the user's roadmap with completion overlaid
func (s *Service) GetRoadmap(ctx context.Context, userID string) (models.RoadmapView, error) {
	start := s.now()
	roadmap, err := s.loadRoadmap(ctx, userID)
	if err != nil {
		return models.RoadmapView{}, err
	}

	completed, err := s.store.CompletedSteps(ctx, userID, roadmap.RoadmapID)
	if err != nil {
		return models.RoadmapView{}, fmt.Errorf("failed to load progress: %w", err)
	}

	steps, summary := models.ApplyProgress(roadmap.Steps, completed)
	roadmap.Steps = steps

	s.logger.Debug("Roadmap fetched", "user_id", userID, "duration", s.now().Sub(start))
	return models.RoadmapView{Roadmap: roadmap, Progress: summary}, nil
}

// UpdateProgress marks a step completed or incomplete. Incomplete removes
// the progress record.
func (s *Service) UpdateProgress(ctx context.Context, userID, stepID string, completed bool) (ProgressResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(stepID) == "" {
		return ProgressResult{}, fmt.Errorf("%w: user_id and step_id are required", ErrInvalidInput)
	}

	roadmap, err := s.loadRoadmap(ctx, userID)
	if err != nil {
		return ProgressResult{}, err
	}
	if !roadmap.HasStep(stepID) {
		return ProgressResult{}, ErrStepNotFound
	}

	msg := MsgStepIncomplete
	if completed {
		err = s.store.UpsertProgress(ctx, models.ProgressRecord{
			ProgressID:  s.newID(),
			UserID:      userID,
			RoadmapID:   roadmap.RoadmapID,
			StepID:      stepID,
			Completed:   true,
			CompletedAt: s.now(),
		})
		msg = MsgStepCompleted
	} else {
		err = s.store.DeleteProgress(ctx, userID, stepID)
	}
	if err != nil {
		return ProgressResult{}, fmt.Errorf("failed to update progress: %w", err)
	}

	done, err := s.store.CompletedSteps(ctx, userID, roadmap.RoadmapID)
	if err != nil {
		return ProgressResult{}, fmt.Errorf("failed to load progress: %w", err)
	}
	_, summary := models.ApplyProgress(roadmap.Steps, done)

	s.logger.Info("Progress updated", "user_id", userID, "step_id", stepID, "completed", completed)
	return ProgressResult{StepID: stepID, Completed: completed, Message: msg, Progress: summary}, nil
}

// Advise answers a career question and records the exchange in chat history
func (s *Service) Advise(ctx context.Context, userID, message string) (AdviceResult, error) {
	message = strings.TrimSpace(message)
	if message == "" || strings.TrimSpace(userID) == "" {
		return AdviceResult{}, fmt.Errorf("%w: message and user_id are required", ErrInvalidInput)
	}

	answers := s.fetchAnswers(ctx, userID)
	outcome := s.gen.Advise(ctx, userID, message, answers)

	now := s.now()
	err := s.store.AppendChat(ctx, userID,
		models.ChatMessage{Role: models.RoleUser, Content: message, Timestamp: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: outcome.Text, Timestamp: now},
	)
	if err != nil {
		return AdviceResult{}, fmt.Errorf("failed to save chat history: %w", err)
	}

	s.logger.Info("Advice generated", "user_id", userID, "degraded", outcome.Degraded)
	return AdviceResult{Response: outcome.Text, Degraded: outcome.Degraded, Timestamp: now}, nil
}

// ChatHistory returns the user's advice exchanges in order
func (s *Service) ChatHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	history, err := s.store.ChatHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return history, nil
}

func (s *Service) loadRoadmap(ctx context.Context, userID string) (models.Roadmap, error) {
	roadmap, err := s.store.GetRoadmap(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Roadmap{}, ErrRoadmapNotFound
	}
	if err != nil {
		return models.Roadmap{}, fmt.Errorf("failed to load roadmap: %w", err)
	}
	return roadmap, nil
}

// fetchAnswers treats an unreachable assessment backend as an empty assessment
func (s *Service) fetchAnswers(ctx context.Context, userID string) []models.AssessmentAnswer {
	answers, err := s.assessments.Fetch(ctx, userID)
	if err != nil {
		s.logger.Warn("Continuing without assessment", "user_id", userID, "error", err)
		return []models.AssessmentAnswer{}
	}
	return answers
}
