package generator

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pathforge/pathforge/internal/config"
)

// Policy bounds the retry loop
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	Multiplier       float64
	MaxBackoff       time.Duration
	AdviceMaxAnswers int
}

// DefaultPolicy allows 3 attempts with quota waits of 5s then 10s
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      3,
		InitialBackoff:   5 * time.Second,
		Multiplier:       2,
		MaxBackoff:       60 * time.Second,
		AdviceMaxAnswers: 5,
	}
}

// PolicyFromConfig converts generation settings, keeping defaults for unset values
func PolicyFromConfig(cfg config.GenerationConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffSeconds > 0 {
		p.InitialBackoff = seconds(cfg.InitialBackoffSeconds)
	}
	if cfg.BackoffMultiplier >= 1 {
		p.Multiplier = cfg.BackoffMultiplier
	}
	if cfg.MaxBackoffSeconds > 0 {
		p.MaxBackoff = seconds(cfg.MaxBackoffSeconds)
	}
	if cfg.AdviceMaxAnswers > 0 {
		p.AdviceMaxAnswers = cfg.AdviceMaxAnswers
	}
	return p
}

// newBackOff returns a deterministic exponential schedule that never gives up
// on its own; the attempt budget is enforced by the generator.
func (p Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = max(p.MaxBackoff, p.InitialBackoff)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
