// Package providers adapts concrete LLM backends to llm.Provider.
package providers

import (
	"fmt"
	"log/slog"

	"github.com/pathforge/pathforge/internal/api"
	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/llm"
)

// New builds the provider selected by cfg.Provider.Kind
func New(cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (llm.Provider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg, secrets, api.NewRateLimiterPool(), logger), nil
	case config.ProviderCompat:
		return NewCompat(cfg, secrets, api.NewClient(logger.With("component", "api")), logger), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// resolveModel applies config overrides and validates the identifier
func resolveModel(cfg *config.Config, id string) (config.ModelConfig, error) {
	if err := config.ValidateModelName(id); err != nil {
		return config.ModelConfig{}, err
	}
	mc, err := cfg.ModelConfigFor(id)
	if err != nil {
		return config.ModelConfig{}, err
	}
	if err := config.ValidateModelName(mc.ModelName); err != nil {
		return config.ModelConfig{}, err
	}
	return mc, nil
}
