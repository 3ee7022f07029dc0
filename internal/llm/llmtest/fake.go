// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pathforge/pathforge/internal/llm"
)

// Reply is one scripted Generate result
type Reply struct {
	Text string
	Err  error
}

// Quota returns a reply that fails with a quota error
func Quota() Reply {
	return Reply{Err: errors.New("429 resource exhausted")}.asQuota()
}

// Fail returns a reply that fails with a generic model error
func Fail(msg string) Reply {
	return Reply{Err: errors.New(msg)}
}

// Text returns a reply with the given text
func Text(s string) Reply {
	return Reply{Text: s}
}

func (r Reply) asQuota() Reply {
	r.Err = &quotaMarker{r.Err}
	return r
}

type quotaMarker struct{ error }

func (q *quotaMarker) Unwrap() error { return q.error }

// Provider is a scripted provider. Replies are consumed in order across all
// models; once exhausted the last reply repeats.
type Provider struct {
	mu          sync.Mutex
	unavailable map[string]error
	replies     []Reply
	listed      []string
	listErr     error

	prompts   []string
	modelsHit []string
}

// NewProvider creates a provider returning replies in order
func NewProvider(replies ...Reply) *Provider {
	return &Provider{
		unavailable: make(map[string]error),
		replies:     replies,
	}
}

// Unavailable makes Model(id) fail for each id
func (p *Provider) Unavailable(ids ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.unavailable[id] = fmt.Errorf("model %s not found", id)
	}
	return p
}

// Lists sets the models returned by ListModels
func (p *Provider) Lists(ids []string, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listed = ids
	p.listErr = err
	return p
}

// Name implements llm.Provider
func (p *Provider) Name() string { return "fake" }

// Model implements llm.Provider
func (p *Provider) Model(id string) (llm.Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.unavailable[id]; ok {
		return nil, err
	}
	return &model{id: id, provider: p}, nil
}

// ListModels implements llm.Lister
func (p *Provider) ListModels(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.listed...), p.listErr
}

// Calls returns how many times Generate ran
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

// Prompts returns every prompt received, in order
func (p *Provider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// ModelsUsed returns the model ID of every Generate call, in order
func (p *Provider) ModelsUsed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.modelsHit...)
}

func (p *Provider) next(id, prompt string) Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.prompts)
	p.prompts = append(p.prompts, prompt)
	p.modelsHit = append(p.modelsHit, id)
	if len(p.replies) == 0 {
		return Reply{Err: errors.New("no scripted reply")}
	}
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}
	return p.replies[idx]
}

type model struct {
	id       string
	provider *Provider
}

func (m *model) ID() string { return m.id }

func (m *model) Generate(_ context.Context, prompt string) (llm.Response, error) {
	reply := m.provider.next(m.id, prompt)
	if reply.Err != nil {
		var quota *quotaMarker
		if errors.As(reply.Err, &quota) {
			return nil, llm.NewQuotaExceededError(m.id, quota.error)
		}
		return nil, llm.NewModelError(m.id, reply.Err)
	}
	return llm.TextResponse(reply.Text), nil
}
