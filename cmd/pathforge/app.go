package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pathforge/pathforge/internal/assessment"
	"github.com/pathforge/pathforge/internal/cache"
	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/fallback"
	"github.com/pathforge/pathforge/internal/generator"
	"github.com/pathforge/pathforge/internal/llm"
	"github.com/pathforge/pathforge/internal/llm/providers"
	"github.com/pathforge/pathforge/internal/metrics"
	"github.com/pathforge/pathforge/internal/service"
	"github.com/pathforge/pathforge/internal/store"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider llm.Provider
	chain    *llm.Chain
	cache    *cache.GenerationCache
	metrics  *metrics.Collector
	store    store.Store
	svc      *service.Service
}

func newApp(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (*app, error) {
	provider, err := providers.New(cfg, secrets, logger.With("component", "provider"))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	chain := llm.NewChain(provider, cfg.Generation.ModelCandidates,
		llm.WithDiscovery(cfg.Generation.DiscoverModels),
		llm.WithLogger(logger.With("component", "chain")))

	prompts, err := generator.NewPrompts(cfg.PromptTemplates, cfg.Generation.AdviceMaxAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	collector := metrics.NewCollector(logger.With("component", "metrics"))
	genCache := cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	gen := generator.New(chain, genCache, fallback.New(cfg.Fallback.ManufacturingSignal), prompts,
		generator.WithPolicy(generator.PolicyFromConfig(cfg.Generation)),
		generator.WithMetrics(collector),
		generator.WithLogger(logger.With("component", "generator")))

	st, err := store.New(ctx, cfg.Store, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	fetcher := assessment.NewFetcher(cfg.Assessment, secrets.AssessmentToken, logger.With("component", "assessment"))

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		chain:    chain,
		cache:    genCache,
		metrics:  collector,
		store:    st,
		svc:      service.New(gen, fetcher, st, logger.With("component", "service")),
	}, nil
}

func (a *app) Close() {
	stats := a.cache.Stats()
	a.logger.Debug("Cache stats",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
		"entries", stats.Entries)
	a.store.Close()
}
