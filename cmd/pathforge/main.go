package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/writer"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	envFile    string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pathforge",
		Short: "PathForge - AI career roadmap generator",
		Long: `PathForge generates NSQF-aligned training roadmaps and career advice
from a user's assessment answers, falling back to curated tracks when no
model is available.`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: markConfigFlag,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file (empty for defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newRoadmapCmd(),
		newShowCmd(),
		newProgressCmd(),
		newAdviseCmd(),
		newHistoryCmd(),
		newBatchCmd(),
		newModelsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig reads the env file and configuration
func loadConfig() (*config.Config, *config.Secrets, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	path := configPath
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) && !configFlagChanged {
			path = ""
		}
	}

	cfg, secrets, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		for provider, key := range secrets.APIKeys {
			if key != "" {
				fmt.Fprintf(os.Stderr, "Loaded API key for: %s (length: %d)\n", provider, len(key))
			}
		}
	}
	return cfg, secrets, nil
}

// configFlagChanged is set when --config was given explicitly, in which
// case a missing file is an error instead of falling back to defaults.
var configFlagChanged bool

func markConfigFlag(cmd *cobra.Command, _ []string) error {
	configFlagChanged = cmd.Flags().Changed("config")
	return nil
}

// openApp loads configuration and wires the service with a console logger
func openApp(ctx context.Context) (*app, error) {
	cfg, secrets, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := writer.NewConsoleLogger(os.Stderr, logLevel())
	return newApp(ctx, cfg, secrets, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
