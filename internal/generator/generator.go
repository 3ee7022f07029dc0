// Package generator produces roadmaps and advice with caching, quota-aware
// retries, and a canned fallback when no model answers usefully.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pathforge/pathforge/internal/cache"
	"github.com/pathforge/pathforge/internal/llm"
	"github.com/pathforge/pathforge/internal/metrics"
	"github.com/pathforge/pathforge/internal/util"
	"github.com/pathforge/pathforge/internal/validator"
	"github.com/pathforge/pathforge/pkg/models"
)

// State is a step of the generation loop
type State int

const (
	StateCacheCheck State = iota
	StateGenerating
	StateRetrying
	StateSuccess
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateCacheCheck:
		return "cache_check"
	case StateGenerating:
		return "generating"
	case StateRetrying:
		return "retrying"
	case StateSuccess:
		return "success"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Selector picks the model for an attempt
type Selector interface {
	Select(ctx context.Context) (llm.Model, error)
}

// Store is the generation cache
type Store interface {
	Get(fingerprint string) (models.CacheEntry, bool)
	Put(fingerprint string, entry models.CacheEntry)
}

// Fallbacks supplies canned answers
type Fallbacks interface {
	Roadmap(answers []models.AssessmentAnswer) []models.RoadmapStep
	Advice(answers []models.AssessmentAnswer) string
}

// Generator runs requests through the cache, the model chain and the fallback catalog
type Generator struct {
	chain     Selector
	cache     Store
	fallbacks Fallbacks
	prompts   *Prompts
	policy    Policy

	metrics *metrics.Collector
	logger  *slog.Logger
	sleep   func(time.Duration)
}

// Option configures a Generator
type Option func(*Generator)

// WithPolicy overrides the retry policy
func WithPolicy(p Policy) Option {
	return func(g *Generator) { g.policy = p }
}

// WithMetrics records generation metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Generator) { g.metrics = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithSleep replaces time.Sleep for quota backoff waits
func WithSleep(sleep func(time.Duration)) Option {
	return func(g *Generator) { g.sleep = sleep }
}

// New creates a generator
func New(chain Selector, store Store, fallbacks Fallbacks, prompts *Prompts, opts ...Option) *Generator {
	g := &Generator{
		chain:     chain,
		cache:     store,
		fallbacks: fallbacks,
		prompts:   prompts,
		policy:    DefaultPolicy(),
		logger:    slog.Default(),
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// run is the mutable state of one request
type run struct {
	req         models.GenerationRequest
	fingerprint string
	state       State
	prompt      string

	attempts int
	model    llm.Model
	modelID  string
	lastErr  error
	wait     time.Duration
	backoff  backoff.BackOff

	steps []models.RoadmapStep
	text  string
	entry models.CacheEntry
}

// GenerateRoadmap builds a roadmap for the user's answers
func (g *Generator) GenerateRoadmap(ctx context.Context, userID string, answers []models.AssessmentAnswer) models.GenerationOutcome {
	return g.Generate(ctx, models.NewRoadmapRequest(userID, answers))
}

// Advise answers a career question in the context of the user's answers
func (g *Generator) Advise(ctx context.Context, userID, message string, answers []models.AssessmentAnswer) models.GenerationOutcome {
	return g.Generate(ctx, models.NewAdviceRequest(userID, message, answers))
}

// Generate always returns an answer. Canned answers are marked Degraded.
// Cancellation of ctx does not interrupt the request.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) models.GenerationOutcome {
	ctx = context.WithoutCancel(ctx)

	r := &run{
		req:         req,
		fingerprint: cache.Fingerprint(req),
		state:       StateCacheCheck,
		backoff:     g.policy.newBackOff(),
	}
	logger := g.logger.With("kind", req.Kind, "user_id", req.UserID, "fingerprint", shortFingerprint(r.fingerprint))

	for {
		logger.Debug("Generation state", "state", r.state, "attempt", r.attempts)
		switch r.state {
		case StateCacheCheck:
			g.checkCache(r)
		case StateGenerating:
			g.attempt(ctx, r, logger)
		case StateRetrying:
			g.backOff(r, logger)
		case StateSuccess:
			return g.succeed(r, logger)
		case StateExhausted:
			return g.exhaust(r, logger)
		}
	}
}

func (g *Generator) checkCache(r *run) {
	entry, ok := g.cache.Get(r.fingerprint)
	g.metrics.RecordCacheLookup(string(r.req.Kind), ok)
	if ok {
		r.entry = entry
		r.state = StateSuccess
		return
	}

	prompt, err := g.prompts.Build(r.req)
	if err != nil {
		r.lastErr = err
		r.state = StateExhausted
		return
	}
	r.prompt = prompt
	r.state = StateGenerating
}

func (g *Generator) attempt(ctx context.Context, r *run, logger *slog.Logger) {
	r.attempts++

	if r.model == nil {
		model, err := g.chain.Select(ctx)
		if err != nil {
			logger.Error("No model available", "error", err)
			g.metrics.RecordAttempt("", metrics.ResultUnavailable)
			r.lastErr = err
			r.state = StateExhausted
			return
		}
		r.model = model
	}

	modelID := r.model.ID()
	r.modelID = modelID
	start := time.Now()
	resp, err := r.model.Generate(ctx, r.prompt)
	g.metrics.RecordModelCall(modelID, time.Since(start), err == nil)

	if err != nil {
		r.lastErr = err
		if llm.IsQuotaExceeded(err) {
			g.metrics.RecordAttempt(modelID, metrics.ResultQuota)
			logger.Warn("Model quota exceeded", "model", modelID, "attempt", r.attempts, "max_attempts", g.policy.MaxAttempts)
			if r.attempts >= g.policy.MaxAttempts {
				r.state = StateExhausted
				return
			}
			r.wait = r.backoff.NextBackOff()
			r.state = StateRetrying
			return
		}

		g.metrics.RecordAttempt(modelID, metrics.ResultModelError)
		logger.Warn("Model call failed", "model", modelID, "attempt", r.attempts, "error", err)
		r.model = nil
		if r.attempts >= g.policy.MaxAttempts {
			r.state = StateExhausted
		}
		return
	}

	if err := g.parse(r, resp.Text()); err != nil {
		g.metrics.RecordAttempt(modelID, metrics.ResultMalformed)
		logger.Error("Unusable model response",
			"model", modelID,
			"error", err,
			"response_preview", util.TruncateString(resp.Text(), 200))
		r.lastErr = err
		r.state = StateExhausted
		return
	}

	g.metrics.RecordAttempt(modelID, metrics.ResultSuccess)
	r.entry = models.CacheEntry{Kind: r.req.Kind, Steps: r.steps, Text: r.text}
	g.cache.Put(r.fingerprint, r.entry)
	r.state = StateSuccess
}

func (g *Generator) parse(r *run, raw string) error {
	switch r.req.Kind {
	case models.KindAdvice:
		text, err := validator.ParseAdvice(raw)
		if err != nil {
			return err
		}
		r.text = text
	default:
		steps, err := validator.ParseRoadmap(raw)
		if err != nil {
			return err
		}
		r.steps = steps
	}
	return nil
}

func (g *Generator) backOff(r *run, logger *slog.Logger) {
	logger.Info("Backing off after quota error", "wait", r.wait, "attempt", r.attempts)
	g.metrics.RecordBackoff(r.wait)
	g.sleep(r.wait)
	r.state = StateGenerating
}

func (g *Generator) succeed(r *run, logger *slog.Logger) models.GenerationOutcome {
	fromCache := r.attempts == 0
	source := metrics.SourceModel
	if fromCache {
		source = metrics.SourceCache
		logger.Debug("Cache hit", "degraded", r.entry.Degraded)
	} else {
		logger.Info("Generation succeeded", "model", r.modelID, "attempts", r.attempts)
	}
	g.metrics.RecordOutcome(string(r.req.Kind), source)

	return models.GenerationOutcome{
		Kind:         r.req.Kind,
		Steps:        r.entry.Steps,
		Text:         r.entry.Text,
		Degraded:     r.entry.Degraded,
		AttemptsUsed: r.attempts,
		Model:        r.modelID,
		FromCache:    fromCache,
		Fingerprint:  r.fingerprint,
	}
}

func (g *Generator) exhaust(r *run, logger *slog.Logger) models.GenerationOutcome {
	entry := models.CacheEntry{Kind: r.req.Kind, Degraded: true}
	switch r.req.Kind {
	case models.KindAdvice:
		entry.Text = g.fallbacks.Advice(r.req.Answers)
	default:
		entry.Steps = g.fallbacks.Roadmap(r.req.Answers)
	}
	g.cache.Put(r.fingerprint, entry)

	logger.Warn("Using fallback", "attempts", r.attempts, "reason", reason(r.lastErr))
	g.metrics.RecordOutcome(string(r.req.Kind), metrics.SourceFallback)

	return models.GenerationOutcome{
		Kind:         r.req.Kind,
		Steps:        entry.Steps,
		Text:         entry.Text,
		Degraded:     true,
		AttemptsUsed: r.attempts,
		Model:        r.modelID,
		Fingerprint:  r.fingerprint,
	}
}

func reason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, llm.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, validator.ErrMalformedResponse):
		return "malformed_response"
	case llm.IsQuotaExceeded(err):
		return "quota_exceeded"
	case llm.IsModelError(err):
		return "model_error"
	default:
		return err.Error()
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
