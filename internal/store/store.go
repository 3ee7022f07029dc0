// Package store persists roadmaps, step progress and advice chat history.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/pkg/models"
)

// ErrNotFound is returned when a user has no roadmap
var ErrNotFound = errors.New("roadmap not found")

// Store is the persistence collaborator. Schemas are managed elsewhere.
type Store interface {
	// SaveRoadmap replaces the user's roadmap
	SaveRoadmap(ctx context.Context, roadmap models.Roadmap) error
	// GetRoadmap returns the user's roadmap or ErrNotFound
	GetRoadmap(ctx context.Context, userID string) (models.Roadmap, error)
	// UpsertProgress records a completed step, keyed by user and step
	UpsertProgress(ctx context.Context, record models.ProgressRecord) error
	// DeleteProgress removes the user's record for a step, if any
	DeleteProgress(ctx context.Context, userID, stepID string) error
	// CompletedSteps returns the step IDs completed against roadmapID
	CompletedSteps(ctx context.Context, userID, roadmapID string) (map[string]bool, error)
	// AppendChat adds messages to the end of the user's chat history
	AppendChat(ctx context.Context, userID string, messages ...models.ChatMessage) error
	// ChatHistory returns the user's messages in order; empty when none exist
	ChatHistory(ctx context.Context, userID string) ([]models.ChatMessage, error)
	Close()
}

// New opens the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		logger.Debug("Using in-memory store")
		return NewMemory(), nil
	case config.StorePostgres:
		return NewPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
