package store

import (
	"context"
	"sync"

	"github.com/pathforge/pathforge/pkg/models"
)

type progressKey struct {
	userID string
	stepID string
}

// Memory is a process-local Store
type Memory struct {
	mu       sync.RWMutex
	roadmaps map[string]models.Roadmap
	progress map[progressKey]models.ProgressRecord
	chats    map[string][]models.ChatMessage
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		roadmaps: make(map[string]models.Roadmap),
		progress: make(map[progressKey]models.ProgressRecord),
		chats:    make(map[string][]models.ChatMessage),
	}
}

// SaveRoadmap replaces the user's roadmap
func (m *Memory) SaveRoadmap(_ context.Context, roadmap models.Roadmap) error {
	roadmap.Steps = models.CloneSteps(roadmap.Steps)
	roadmap.AssessmentSummary = models.CloneAnswers(roadmap.AssessmentSummary)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.roadmaps[roadmap.UserID] = roadmap
	return nil
}

// GetRoadmap returns a copy of the user's roadmap or ErrNotFound
func (m *Memory) GetRoadmap(_ context.Context, userID string) (models.Roadmap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roadmap, ok := m.roadmaps[userID]
	if !ok {
		return models.Roadmap{}, ErrNotFound
	}
	roadmap.Steps = models.CloneSteps(roadmap.Steps)
	roadmap.AssessmentSummary = models.CloneAnswers(roadmap.AssessmentSummary)
	return roadmap, nil
}

// UpsertProgress stores a progress record keyed by user and step
func (m *Memory) UpsertProgress(_ context.Context, record models.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progressKey{record.UserID, record.StepID}] = record
	return nil
}

// DeleteProgress removes the user's record for stepID, if any
func (m *Memory) DeleteProgress(_ context.Context, userID, stepID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress, progressKey{userID, stepID})
	return nil
}

// CompletedSteps returns the completed step IDs recorded against roadmapID
func (m *Memory) CompletedSteps(_ context.Context, userID, roadmapID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	completed := make(map[string]bool)
	for key, rec := range m.progress {
		if key.userID == userID && rec.RoadmapID == roadmapID && rec.Completed {
			completed[key.stepID] = true
		}
	}
	return completed, nil
}

// AppendChat adds messages to the end of the user's history
func (m *Memory) AppendChat(_ context.Context, userID string, messages ...models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[userID] = append(m.chats[userID], messages...)
	return nil
}

// ChatHistory returns a copy of the user's messages in order
func (m *Memory) ChatHistory(_ context.Context, userID string) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ChatMessage{}, m.chats[userID]...), nil
}

// Close implements Store. There is nothing to release.
func (m *Memory) Close() {}
