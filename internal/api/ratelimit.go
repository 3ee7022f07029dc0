package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterPool manages per-model rate limiters
type RateLimiterPool struct {
	limiters map[string]*rate.Limiter
	rates    map[string]int
	mu       sync.Mutex
}

// NewRateLimiterPool creates a new rate limiter pool
func NewRateLimiterPool() *RateLimiterPool {
	return &RateLimiterPool{
		limiters: make(map[string]*rate.Limiter),
		rates:    make(map[string]int),
	}
}

// GetOrCreate returns the limiter for modelID, creating it on first use.
// A changed rate is applied to the existing limiter.
func (p *RateLimiterPool) GetOrCreate(modelID string, requestsPerMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	rps, burst := limits(requestsPerMinute)

	if limiter, exists := p.limiters[modelID]; exists {
		if p.rates[modelID] != requestsPerMinute {
			slog.Debug("Updating rate limiter",
				"model_id", modelID,
				"previous_rpm", p.rates[modelID],
				"rpm", requestsPerMinute)
			limiter.SetLimit(rps)
			limiter.SetBurst(burst)
			p.rates[modelID] = requestsPerMinute
		}
		return limiter
	}

	limiter := rate.NewLimiter(rps, burst)
	p.limiters[modelID] = limiter
	p.rates[modelID] = requestsPerMinute

	slog.Debug("Created rate limiter",
		"model_id", modelID,
		"rpm", requestsPerMinute,
		"burst", burst)

	return limiter
}

// Wait blocks until the rate limiter allows the next request
func (p *RateLimiterPool) Wait(ctx context.Context, modelID string, requestsPerMinute int) error {
	_, err := p.WaitTimed(ctx, modelID, requestsPerMinute)
	return err
}

// WaitTimed is Wait that also reports the time spent blocked
func (p *RateLimiterPool) WaitTimed(ctx context.Context, modelID string, requestsPerMinute int) (time.Duration, error) {
	if requestsPerMinute <= 0 {
		return 0, nil
	}
	limiter := p.GetOrCreate(modelID, requestsPerMinute)
	start := time.Now()
	err := limiter.Wait(ctx)
	return time.Since(start), err
}

// limits converts requests per minute to a token rate with 20% burst, minimum 1
func limits(requestsPerMinute int) (rate.Limit, int) {
	rps := rate.Limit(float64(requestsPerMinute) / 60.0)
	return rps, max(1, requestsPerMinute/5)
}
