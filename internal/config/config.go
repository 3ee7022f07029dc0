package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrModelDisabled is returned when a model candidate is switched off in config
var ErrModelDisabled = errors.New("model disabled in configuration")

// Provider kinds
const (
	ProviderOpenAI = "openai" // openai-go SDK against an OpenAI-compatible endpoint
	ProviderCompat = "compat" // plain HTTP chat completions client
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Provider        ProviderConfig         `toml:"provider"`
	Generation      GenerationConfig       `toml:"generation"`
	Models          map[string]ModelConfig `toml:"models"` // Per-candidate overrides keyed by model name
	Cache           CacheConfig            `toml:"cache"`
	Fallback        FallbackConfig         `toml:"fallback"`
	Assessment      AssessmentConfig       `toml:"assessment"`
	Store           StoreConfig            `toml:"store"`
	Batch           BatchConfig            `toml:"batch"`
	Metrics         MetricsConfig          `toml:"metrics"`
	PromptTemplates PromptTemplates        `toml:"prompt_templates"`
}

// ProviderConfig holds the endpoint and sampling defaults shared by all model candidates
type ProviderConfig struct {
	Kind               string  `toml:"kind"`
	BaseURL            string  `toml:"base_url"`
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds"`
}

// GenerationConfig holds retry and model selection settings
type GenerationConfig struct {
	ModelCandidates       []string `toml:"model_candidates"`        // Tried in order, first instantiable wins
	DiscoverModels        bool     `toml:"discover_models"`         // Ask the provider for any usable model when all candidates fail
	MaxAttempts           int      `toml:"max_attempts"`            // Total attempts per request (default 3)
	InitialBackoffSeconds float64  `toml:"initial_backoff_seconds"` // First quota backoff (default 5)
	BackoffMultiplier     float64  `toml:"backoff_multiplier"`      // Growth factor between backoffs (default 2)
	MaxBackoffSeconds     float64  `toml:"max_backoff_seconds"`     // Cap for a single wait (default 60)
	AdviceMaxAnswers      int      `toml:"advice_max_answers"`      // Assessment answers embedded in advice prompts (default 5)
}

// ModelConfig represents the resolved configuration for a single model candidate.
// In the [models] table every field is an optional override of [provider].
type ModelConfig struct {
	BaseURL            string  `toml:"base_url"`
	ModelName          string  `toml:"model_name"`
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds"`
	Disabled           bool    `toml:"disabled"`
}

// CacheConfig sizes the generation cache
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
	TTLSeconds int `toml:"ttl_seconds"`
}

// FallbackConfig controls canned roadmap selection
type FallbackConfig struct {
	ManufacturingSignal string `toml:"manufacturing_signal"`
}

// AssessmentConfig points at the assessment status endpoint
type AssessmentConfig struct {
	BaseURL        string `toml:"base_url"`
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver   string `toml:"driver"`
	DSN      string `toml:"dsn"`
	MaxConns int32  `toml:"max_conns"`
}

// BatchConfig holds batch generation settings
type BatchConfig struct {
	Concurrency int    `toml:"concurrency"`
	OutputDir   string `toml:"output_dir"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"` // Empty disables the /metrics endpoint
}

// PromptTemplates holds all customizable prompt templates
type PromptTemplates struct {
	Roadmap        string `toml:"roadmap"`
	GeneralRoadmap string `toml:"general_roadmap"`
	Advice         string `toml:"advice"`
}

// Secrets holds sensitive credentials loaded from environment variables
type Secrets struct {
	APIKeys         map[string]string
	AssessmentToken string
}

const (
	// MaxConcurrency is the maximum allowed batch concurrency
	MaxConcurrency = 256
	// MaxAttemptsLimit is the maximum allowed attempts per request
	MaxAttemptsLimit = 10
)

// ModelConfigFor resolves the configuration for a model candidate by
// layering its [models] override on top of [provider].
func (c *Config) ModelConfigFor(modelID string) (ModelConfig, error) {
	mc := ModelConfig{
		BaseURL:            c.Provider.BaseURL,
		ModelName:          modelID,
		Temperature:        c.Provider.Temperature,
		TopP:               c.Provider.TopP,
		MaxOutputTokens:    c.Provider.MaxOutputTokens,
		RateLimitPerMinute: c.Provider.RateLimitPerMinute,
		HTTPTimeoutSeconds: c.Provider.HTTPTimeoutSeconds,
	}

	override, ok := c.Models[modelID]
	if !ok {
		return mc, nil
	}
	if override.Disabled {
		return ModelConfig{}, fmt.Errorf("%s: %w", modelID, ErrModelDisabled)
	}
	if override.BaseURL != "" {
		mc.BaseURL = override.BaseURL
	}
	if override.ModelName != "" {
		mc.ModelName = override.ModelName
	}
	if override.Temperature != 0 {
		mc.Temperature = override.Temperature
	}
	if override.TopP != 0 {
		mc.TopP = override.TopP
	}
	if override.MaxOutputTokens != 0 {
		mc.MaxOutputTokens = override.MaxOutputTokens
	}
	if override.RateLimitPerMinute != 0 {
		mc.RateLimitPerMinute = override.RateLimitPerMinute
	}
	if override.HTTPTimeoutSeconds != 0 {
		mc.HTTPTimeoutSeconds = override.HTTPTimeoutSeconds
	}
	return mc, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderOpenAI, ProviderCompat:
	default:
		return fmt.Errorf("provider.kind must be one of: openai, compat (got %q)", c.Provider.Kind)
	}
	if err := validateModelConfig("provider", ModelConfig{
		BaseURL:            c.Provider.BaseURL,
		ModelName:          "provider",
		Temperature:        c.Provider.Temperature,
		TopP:               c.Provider.TopP,
		MaxOutputTokens:    c.Provider.MaxOutputTokens,
		RateLimitPerMinute: c.Provider.RateLimitPerMinute,
	}); err != nil {
		return err
	}

	if len(c.Generation.ModelCandidates) == 0 {
		return fmt.Errorf("generation.model_candidates must list at least one model")
	}
	if c.Generation.MaxAttempts < 1 || c.Generation.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("generation.max_attempts must be between 1 and %d (got %d)", MaxAttemptsLimit, c.Generation.MaxAttempts)
	}
	if c.Generation.InitialBackoffSeconds < 0 {
		return fmt.Errorf("generation.initial_backoff_seconds must not be negative")
	}
	if c.Generation.BackoffMultiplier < 1 {
		return fmt.Errorf("generation.backoff_multiplier must be at least 1 (got %.2f)", c.Generation.BackoffMultiplier)
	}
	if c.Generation.AdviceMaxAnswers < 0 {
		return fmt.Errorf("generation.advice_max_answers must not be negative")
	}

	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1")
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache.ttl_seconds must be at least 1")
	}

	if strings.TrimSpace(c.Fallback.ManufacturingSignal) == "" {
		return fmt.Errorf("fallback.manufacturing_signal is required")
	}

	if c.Assessment.TimeoutSeconds < 1 {
		return fmt.Errorf("assessment.timeout_seconds must be at least 1")
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn (or DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be one of: memory, postgres (got %q)", c.Store.Driver)
	}

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > MaxConcurrency {
		return fmt.Errorf("batch.concurrency must be between 1 and %d (got %d)", MaxConcurrency, c.Batch.Concurrency)
	}

	for name, override := range c.Models {
		if override.Temperature < 0 || override.Temperature > 2 {
			return fmt.Errorf("models.%s.temperature must be between 0 and 2", name)
		}
		if override.TopP < 0 || override.TopP > 1 {
			return fmt.Errorf("models.%s.top_p must be between 0 and 1", name)
		}
	}

	if c.PromptTemplates.Roadmap == "" {
		return fmt.Errorf("prompt_templates.roadmap is required")
	}
	if c.PromptTemplates.GeneralRoadmap == "" {
		return fmt.Errorf("prompt_templates.general_roadmap is required")
	}
	if c.PromptTemplates.Advice == "" {
		return fmt.Errorf("prompt_templates.advice is required")
	}

	return nil
}

func validateModelConfig(name string, mc ModelConfig) error {
	if mc.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", name)
	}
	if mc.ModelName == "" {
		return fmt.Errorf("%s.model_name is required", name)
	}
	if mc.Temperature < 0 || mc.Temperature > 2 {
		return fmt.Errorf("%s.temperature must be between 0 and 2", name)
	}
	if mc.TopP < 0 || mc.TopP > 1 {
		return fmt.Errorf("%s.top_p must be between 0 and 1", name)
	}
	if mc.MaxOutputTokens < 1 {
		return fmt.Errorf("%s.max_output_tokens must be at least 1", name)
	}
	if mc.RateLimitPerMinute < 1 {
		return fmt.Errorf("%s.rate_limit_per_minute must be at least 1", name)
	}
	return nil
}

// LoadSecrets loads sensitive credentials from environment variables
func LoadSecrets() (*Secrets, error) {
	secrets := &Secrets{
		APIKeys: make(map[string]string),
	}

	// Load generic API key (provider-agnostic)
	if key := os.Getenv("API_KEY"); key != "" {
		secrets.APIKeys["generic"] = key
	}

	// Provider-specific keys override generic
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		secrets.APIKeys["gemini"] = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKeys["openai"] = key
	}

	secrets.AssessmentToken = os.Getenv("ASSESSMENT_TOKEN")

	return secrets, nil
}

// GetAPIKey returns the API key for a given base URL
func (s *Secrets) GetAPIKey(baseURL string) string {
	if strings.Contains(baseURL, "googleapis.com") {
		if key := s.APIKeys["gemini"]; key != "" {
			return key
		}
	}
	if strings.Contains(baseURL, "openai.com") {
		if key := s.APIKeys["openai"]; key != "" {
			return key
		}
	}

	// Fall back to generic API_KEY for any OpenAI-compatible provider
	if key := s.APIKeys["generic"]; key != "" {
		return key
	}

	// Local servers may run without auth
	return ""
}

// GetProviderName extracts a provider name from a base URL for logging and metrics
func GetProviderName(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "googleapis.com"):
		return "gemini"
	case strings.Contains(baseURL, "openai.com"):
		return "openai"
	default:
		return baseURL
	}
}
