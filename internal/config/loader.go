package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables.
// An empty path yields the built-in defaults.
func Load(configPath string) (*Config, *Secrets, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ValidateInputs(); err != nil {
		return nil, nil, fmt.Errorf("input validation failed: %w", err)
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &cfg, secrets, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets deployment env vars point at collaborators
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("BACKEND_URL"); url != "" {
		cfg.Assessment.BaseURL = url
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Store.DSN = dsn
		if cfg.Store.Driver == StoreMemory {
			cfg.Store.Driver = StorePostgres
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Provider defaults
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = ProviderOpenAI
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.7
	}
	if cfg.Provider.TopP == 0 {
		cfg.Provider.TopP = 1.0
	}
	if cfg.Provider.MaxOutputTokens == 0 {
		cfg.Provider.MaxOutputTokens = 4096
	}
	if cfg.Provider.RateLimitPerMinute == 0 {
		cfg.Provider.RateLimitPerMinute = 15
	}
	if cfg.Provider.HTTPTimeoutSeconds == 0 {
		cfg.Provider.HTTPTimeoutSeconds = 120
	}

	// Generation defaults
	if len(cfg.Generation.ModelCandidates) == 0 {
		cfg.Generation.ModelCandidates = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro"}
	}
	if cfg.Generation.MaxAttempts == 0 {
		cfg.Generation.MaxAttempts = 3
	}
	if cfg.Generation.InitialBackoffSeconds == 0 {
		cfg.Generation.InitialBackoffSeconds = 5
	}
	if cfg.Generation.BackoffMultiplier == 0 {
		cfg.Generation.BackoffMultiplier = 2
	}
	if cfg.Generation.MaxBackoffSeconds == 0 {
		cfg.Generation.MaxBackoffSeconds = 60
	}
	if cfg.Generation.AdviceMaxAnswers == 0 {
		cfg.Generation.AdviceMaxAnswers = 5
	}

	// Cache defaults
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 100
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}

	if cfg.Fallback.ManufacturingSignal == "" {
		cfg.Fallback.ManufacturingSignal = "Manufacturing & Engineering"
	}

	// Assessment defaults
	if cfg.Assessment.BaseURL == "" {
		cfg.Assessment.BaseURL = "http://localhost:3000"
	}
	if cfg.Assessment.Path == "" {
		cfg.Assessment.Path = "/api/userinterest/status"
	}
	if cfg.Assessment.TimeoutSeconds == 0 {
		cfg.Assessment.TimeoutSeconds = 10
	}

	// Store defaults
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreMemory
	}
	if cfg.Store.MaxConns == 0 {
		cfg.Store.MaxConns = 10
	}

	// Batch defaults
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 4
	}
	if cfg.Batch.OutputDir == "" {
		cfg.Batch.OutputDir = "output"
	}

	// Apply default templates if not provided
	if cfg.PromptTemplates.Roadmap == "" {
		cfg.PromptTemplates.Roadmap = GetDefaultRoadmapTemplate()
	}
	if cfg.PromptTemplates.GeneralRoadmap == "" {
		cfg.PromptTemplates.GeneralRoadmap = GetDefaultGeneralRoadmapTemplate()
	}
	if cfg.PromptTemplates.Advice == "" {
		cfg.PromptTemplates.Advice = GetDefaultAdviceTemplate()
	}
}
