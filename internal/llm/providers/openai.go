package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pathforge/pathforge/internal/api"
	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/llm"
)

// OpenAI serves models through the openai-go SDK. Any OpenAI-compatible
// endpoint works, including Gemini's.
type OpenAI struct {
	cfg        *config.Config
	secrets    *config.Secrets
	limiters   *api.RateLimiterPool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAI creates an openai-go backed provider
func NewOpenAI(cfg *config.Config, secrets *config.Secrets, limiters *api.RateLimiterPool, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		cfg:      cfg,
		secrets:  secrets,
		limiters: limiters,
		logger:   logger,
	}
}

// WithHTTPClient routes SDK traffic through client
func (p *OpenAI) WithHTTPClient(client *http.Client) *OpenAI {
	p.httpClient = client
	return p
}

// Name implements llm.Provider
func (p *OpenAI) Name() string {
	return config.ProviderOpenAI
}

// Model implements llm.Provider. An API key is required.
func (p *OpenAI) Model(id string) (llm.Model, error) {
	mc, err := resolveModel(p.cfg, id)
	if err != nil {
		return nil, err
	}
	apiKey := p.secrets.GetAPIKey(mc.BaseURL)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for %s", config.GetProviderName(mc.BaseURL))
	}

	return &openaiModel{
		id:       id,
		cfg:      mc,
		client:   openai.NewClient(p.options(mc.BaseURL, apiKey, mc.HTTPTimeoutSeconds)...),
		limiters: p.limiters,
		logger:   p.logger,
	}, nil
}

// ListModels implements llm.Lister
func (p *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	baseURL := p.cfg.Provider.BaseURL
	apiKey := p.secrets.GetAPIKey(baseURL)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for %s", config.GetProviderName(baseURL))
	}

	client := openai.NewClient(p.options(baseURL, apiKey, p.cfg.Provider.HTTPTimeoutSeconds)...)
	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (p *OpenAI) options(baseURL, apiKey string, timeoutSeconds int) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if timeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(timeoutSeconds)*time.Second))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	return opts
}

type openaiModel struct {
	id       string
	cfg      config.ModelConfig
	client   openai.Client
	limiters *api.RateLimiterPool
	logger   *slog.Logger
}

func (m *openaiModel) ID() string {
	return m.id
}

func (m *openaiModel) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	limiterKey := fmt.Sprintf("%s:%s", m.cfg.BaseURL, m.cfg.ModelName)
	if err := m.limiters.Wait(ctx, limiterKey, m.cfg.RateLimitPerMinute); err != nil {
		return nil, llm.NewModelError(m.id, fmt.Errorf("rate limiter wait failed: %w", err))
	}

	params := openai.ChatCompletionNewParams{
		Model: m.cfg.ModelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(m.cfg.MaxOutputTokens)),
		Temperature: openai.Float(m.cfg.Temperature),
		TopP:        openai.Float(m.cfg.TopP),
	}

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyOpenAIError(m.id, err)
	}

	m.logger.Debug("llm chat completed",
		"model", m.id,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, llm.NewModelError(m.id, fmt.Errorf("no choices in response"))
	}
	return llm.TextResponse(resp.Choices[0].Message.Content), nil
}

// statusResourceExhausted is the Google RPC status Gemini reports on quota
// errors, sometimes without a 429
const statusResourceExhausted = "RESOURCE_EXHAUSTED"

func classifyOpenAIError(model string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.Type == "insufficient_quota" ||
			apiErr.Code == "insufficient_quota" ||
			strings.Contains(apiErr.Error(), statusResourceExhausted) {
			return llm.NewQuotaExceededError(model, err)
		}
	}
	return llm.NewModelError(model, err)
}
