package llm

import (
	"context"
	"log/slog"
)

// Chain selects a model from an ordered list of candidates. The first
// candidate that instantiates wins; generation errors from that model are
// returned to the caller and never trigger a move to the next candidate.
type Chain struct {
	provider   Provider
	candidates []string
	discover   bool
	logger     *slog.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithDiscovery makes the chain ask a Lister provider for any usable model
// once every configured candidate has failed.
func WithDiscovery(enabled bool) ChainOption {
	return func(c *Chain) {
		c.discover = enabled
	}
}

// WithLogger sets the chain logger
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates a chain over candidates in priority order
func NewChain(provider Provider, candidates []string, opts ...ChainOption) *Chain {
	c := &Chain{
		provider:   provider,
		candidates: append([]string(nil), candidates...),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Candidates returns the configured candidate order
func (c *Chain) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Select returns the first candidate that can be instantiated. When none
// can, the error matches ErrModelUnavailable.
func (c *Chain) Select(ctx context.Context) (Model, error) {
	unavailable := &UnavailableError{}
	tried := make(map[string]bool, len(c.candidates))

	for _, id := range c.candidates {
		tried[id] = true
		model, err := c.provider.Model(id)
		if err != nil {
			c.logger.Warn("Model not available", "model", id, "error", err)
			unavailable.Failures = append(unavailable.Failures, CandidateFailure{Model: id, Err: err})
			continue
		}
		c.logger.Debug("Using model", "model", id)
		return model, nil
	}

	if model := c.discoverModel(ctx, tried, unavailable); model != nil {
		return model, nil
	}

	return nil, unavailable
}

// Invoke selects a model and runs prompt once against it
func (c *Chain) Invoke(ctx context.Context, prompt string) (string, Model, error) {
	model, err := c.Select(ctx)
	if err != nil {
		return "", nil, err
	}
	resp, err := model.Generate(ctx, prompt)
	if err != nil {
		return "", model, err
	}
	return resp.Text(), model, nil
}

// CandidateStatus reports whether one candidate instantiates
type CandidateStatus struct {
	Model string
	Err   error
}

// Probe instantiates every candidate without generating
func (c *Chain) Probe() []CandidateStatus {
	statuses := make([]CandidateStatus, 0, len(c.candidates))
	for _, id := range c.candidates {
		_, err := c.provider.Model(id)
		statuses = append(statuses, CandidateStatus{Model: id, Err: err})
	}
	return statuses
}

func (c *Chain) discoverModel(ctx context.Context, tried map[string]bool, unavailable *UnavailableError) Model {
	if !c.discover {
		return nil
	}
	lister, ok := c.provider.(Lister)
	if !ok {
		return nil
	}

	available, err := lister.ListModels(ctx)
	if err != nil {
		c.logger.Error("Error listing models", "provider", c.provider.Name(), "error", err)
		return nil
	}
	c.logger.Info("Available models", "provider", c.provider.Name(), "count", len(available))

	for _, id := range available {
		if tried[id] {
			continue
		}
		tried[id] = true
		model, err := c.provider.Model(id)
		if err != nil {
			unavailable.Failures = append(unavailable.Failures, CandidateFailure{Model: id, Err: err})
			continue
		}
		c.logger.Info("Falling back to discovered model", "model", id)
		return model
	}
	return nil
}
