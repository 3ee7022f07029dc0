package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pathforge/pathforge/internal/api"
	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/llm"
)

// Compat serves models through the plain HTTP chat completions client
type Compat struct {
	cfg     *config.Config
	secrets *config.Secrets
	client  *api.Client
	logger  *slog.Logger
}

// NewCompat creates a compat provider
func NewCompat(cfg *config.Config, secrets *config.Secrets, client *api.Client, logger *slog.Logger) *Compat {
	return &Compat{
		cfg:     cfg,
		secrets: secrets,
		client:  client,
		logger:  logger,
	}
}

// Name implements llm.Provider
func (p *Compat) Name() string {
	return config.ProviderCompat
}

// Model implements llm.Provider. Keys are optional so local servers work.
func (p *Compat) Model(id string) (llm.Model, error) {
	mc, err := resolveModel(p.cfg, id)
	if err != nil {
		return nil, err
	}
	return &compatModel{
		id:     id,
		cfg:    mc,
		apiKey: p.secrets.GetAPIKey(mc.BaseURL),
		client: p.client,
	}, nil
}

// ListModels implements llm.Lister
func (p *Compat) ListModels(ctx context.Context) ([]string, error) {
	return p.client.ListModels(ctx, p.cfg.Provider.BaseURL, p.secrets.GetAPIKey(p.cfg.Provider.BaseURL))
}

type compatModel struct {
	id     string
	cfg    config.ModelConfig
	apiKey string
	client *api.Client
}

func (m *compatModel) ID() string {
	return m.id
}

func (m *compatModel) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	resp, err := m.client.ChatCompletion(ctx, m.cfg, m.apiKey, []api.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.QuotaExceeded() {
			return nil, llm.NewQuotaExceededError(m.id, err)
		}
		return nil, llm.NewModelError(m.id, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewModelError(m.id, fmt.Errorf("no choices returned"))
	}
	return llm.TextResponse(resp.Choices[0].Message.Content), nil
}
