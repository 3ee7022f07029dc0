package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/pkg/models"
)

// Postgres stores records in the roadmaps, progress and ai_chats tables.
// The tables must already exist:
//
//	roadmaps (user_id text primary key, roadmap_id text, steps jsonb,
//	          assessment_summary jsonb, is_fallback boolean,
//	          created_at timestamptz, updated_at timestamptz)
//	progress (progress_id text, user_id text, roadmap_id text, step_id text,
//	          completed boolean, completed_at timestamptz,
//	          unique (user_id, step_id))
//	ai_chats (id bigserial primary key, user_id text, role text,
//	          content text, created_at timestamptz)
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects to cfg.DSN and verifies the connection
func NewPostgres(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("Connected to PostgreSQL", "max_conns", poolCfg.MaxConns)
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) SaveRoadmap(ctx context.Context, roadmap models.Roadmap) error {
	steps, err := json.Marshal(nonNilSteps(roadmap.Steps))
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}
	summary, err := json.Marshal(models.CloneAnswers(roadmap.AssessmentSummary))
	if err != nil {
		return fmt.Errorf("failed to encode assessment summary: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO roadmaps (user_id, roadmap_id, steps, assessment_summary, is_fallback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			roadmap_id = EXCLUDED.roadmap_id,
			steps = EXCLUDED.steps,
			assessment_summary = EXCLUDED.assessment_summary,
			is_fallback = EXCLUDED.is_fallback,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, roadmap.UserID, roadmap.RoadmapID, steps, summary, roadmap.IsFallback, roadmap.CreatedAt, roadmap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save roadmap: %w", err)
	}
	return nil
}

func (p *Postgres) GetRoadmap(ctx context.Context, userID string) (models.Roadmap, error) {
	var (
		r       models.Roadmap
		steps   []byte
		summary []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT user_id, roadmap_id, steps, assessment_summary, is_fallback, created_at, updated_at
		FROM roadmaps
		WHERE user_id = $1
	`, userID).Scan(&r.UserID, &r.RoadmapID, &steps, &summary, &r.IsFallback, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Roadmap{}, ErrNotFound
		}
		return models.Roadmap{}, fmt.Errorf("failed to load roadmap: %w", err)
	}

	if err := json.Unmarshal(steps, &r.Steps); err != nil {
		return models.Roadmap{}, fmt.Errorf("failed to decode steps: %w", err)
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &r.AssessmentSummary); err != nil {
			return models.Roadmap{}, fmt.Errorf("failed to decode assessment summary: %w", err)
		}
	}
	return r, nil
}

func (p *Postgres) UpsertProgress(ctx context.Context, rec models.ProgressRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO progress (progress_id, user_id, roadmap_id, step_id, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, step_id) DO UPDATE SET
			progress_id = EXCLUDED.progress_id,
			roadmap_id = EXCLUDED.roadmap_id,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at
	`, rec.ProgressID, rec.UserID, rec.RoadmapID, rec.StepID, rec.Completed, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteProgress(ctx context.Context, userID, stepID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM progress WHERE user_id = $1 AND step_id = $2`, userID, stepID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (p *Postgres) CompletedSteps(ctx context.Context, userID, roadmapID string) (map[string]bool, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT step_id FROM progress
		WHERE user_id = $1 AND roadmap_id = $2 AND completed
	`, userID, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	stepIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	completed := make(map[string]bool, len(stepIDs))
	for _, id := range stepIDs {
		completed[id] = true
	}
	return completed, nil
}

func (p *Postgres) AppendChat(ctx context.Context, userID string, messages ...models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range messages {
			batch.Queue(`INSERT INTO ai_chats (user_id, role, content, created_at) VALUES ($1, $2, $3, $4)`,
				userID, m.Role, m.Content, m.Timestamp)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to append chat: %w", err)
	}
	return nil
}

func (p *Postgres) ChatHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT role, content, created_at FROM ai_chats
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ChatMessage, error) {
		var m models.ChatMessage
		err := row.Scan(&m.Role, &m.Content, &m.Timestamp)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func nonNilSteps(steps []models.RoadmapStep) []models.RoadmapStep {
	if steps == nil {
		return []models.RoadmapStep{}
	}
	return steps
}
