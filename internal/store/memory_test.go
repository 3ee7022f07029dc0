package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/pkg/models"
)

func testRoadmap(userID, roadmapID string) models.Roadmap {
	now := time.Now()
	return models.Roadmap{
		RoadmapID: roadmapID,
		UserID:    userID,
		Steps: []models.RoadmapStep{
			{StepID: "step_1", Name: "Digital Literacy Basics", NSQFLevel: models.Level(1)},
			{StepID: "step_2", Name: "Career Path Exploration", NSQFLevel: models.Level(2)},
		},
		AssessmentSummary: []models.AssessmentAnswer{{QuestionText: "Q", SelectedOption: "A"}},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestMemory_Roadmaps(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetRoadmap(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	original := testRoadmap("u1", "r1")
	if err := m.SaveRoadmap(ctx, original); err != nil {
		t.Fatalf("SaveRoadmap failed: %v", err)
	}
	original.Steps[0].Name = "mutated after save"

	got, err := m.GetRoadmap(ctx, "u1")
	if err != nil {
		t.Fatalf("GetRoadmap failed: %v", err)
	}
	if got.Steps[0].Name != "Digital Literacy Basics" {
		t.Errorf("Stored roadmap was mutated through caller slice: %q", got.Steps[0].Name)
	}

	got.Steps[1].Name = "mutated after load"
	again, _ := m.GetRoadmap(ctx, "u1")
	if again.Steps[1].Name != "Career Path Exploration" {
		t.Errorf("Stored roadmap was mutated through returned slice: %q", again.Steps[1].Name)
	}

	if err := m.SaveRoadmap(ctx, testRoadmap("u1", "r2")); err != nil {
		t.Fatalf("SaveRoadmap failed: %v", err)
	}
	replaced, _ := m.GetRoadmap(ctx, "u1")
	if replaced.RoadmapID != "r2" {
		t.Errorf("Expected roadmap to be replaced, got %s", replaced.RoadmapID)
	}
}

func TestMemory_Progress(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	records := []models.ProgressRecord{
		{ProgressID: "p1", UserID: "u1", RoadmapID: "r1", StepID: "step_1", Completed: true},
		{ProgressID: "p2", UserID: "u1", RoadmapID: "r1", StepID: "step_2", Completed: true},
		{ProgressID: "p3", UserID: "u1", RoadmapID: "old", StepID: "step_3", Completed: true},
		{ProgressID: "p4", UserID: "u2", RoadmapID: "r1", StepID: "step_1", Completed: true},
	}
	for _, rec := range records {
		if err := m.UpsertProgress(ctx, rec); err != nil {
			t.Fatalf("UpsertProgress failed: %v", err)
		}
	}

	completed, _ := m.CompletedSteps(ctx, "u1", "r1")
	if len(completed) != 2 || !completed["step_1"] || !completed["step_2"] {
		t.Errorf("Unexpected completed steps %v", completed)
	}

	// Upsert is keyed by user and step
	_ = m.UpsertProgress(ctx, models.ProgressRecord{ProgressID: "p5", UserID: "u1", RoadmapID: "r1", StepID: "step_1", Completed: true})
	if err := m.DeleteProgress(ctx, "u1", "step_1"); err != nil {
		t.Fatalf("DeleteProgress failed: %v", err)
	}
	completed, _ = m.CompletedSteps(ctx, "u1", "r1")
	if len(completed) != 1 || !completed["step_2"] {
		t.Errorf("Expected only step_2 after delete, got %v", completed)
	}

	if err := m.DeleteProgress(ctx, "u1", "missing"); err != nil {
		t.Errorf("Deleting a missing record should succeed, got %v", err)
	}
}

func TestMemory_Chat(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	history, err := m.ChatHistory(ctx, "u1")
	if err != nil || history == nil || len(history) != 0 {
		t.Fatalf("Expected empty non-nil history, got %v (err %v)", history, err)
	}

	_ = m.AppendChat(ctx, "u1",
		models.ChatMessage{Role: models.RoleUser, Content: "q1"},
		models.ChatMessage{Role: models.RoleAssistant, Content: "a1"})
	_ = m.AppendChat(ctx, "u1", models.ChatMessage{Role: models.RoleUser, Content: "q2"})

	history, _ = m.ChatHistory(ctx, "u1")
	if len(history) != 3 || history[0].Content != "q1" || history[2].Content != "q2" {
		t.Errorf("Unexpected history %+v", history)
	}
}

func TestNew_Drivers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(context.Background(), config.StoreConfig{Driver: config.StoreMemory}, logger)
	if err != nil {
		t.Fatalf("Expected memory store, got error %v", err)
	}
	s.Close()

	if _, err := New(context.Background(), config.StoreConfig{Driver: "mongo"}, logger); err == nil {
		t.Error("Expected error for unknown driver")
	}

	if _, err := New(context.Background(), config.StoreConfig{Driver: config.StorePostgres, DSN: "postgres://user@localhost:notaport/db"}, logger); err == nil {
		t.Error("Expected error for invalid DSN")
	}
}
