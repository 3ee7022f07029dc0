package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pathforge/pathforge/internal/llm"
	"github.com/pathforge/pathforge/internal/orchestrator"
	"github.com/pathforge/pathforge/internal/writer"
)

func newRoadmapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roadmap <user-id>",
		Short: "Generate and save a roadmap for a user",
		Long: `Fetch the user's assessment answers, generate a roadmap and save it,
replacing any previous roadmap for the user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				res, err := a.svc.GenerateRoadmap(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a saved roadmap with progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				view, err := a.svc.GetRoadmap(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
}

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <user-id> <step-id> <true|false>",
		Short: "Mark a roadmap step as completed or not",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("completed must be true or false: %w", err)
			}
			return withApp(cmd.Context(), func(a *app) error {
				res, err := a.svc.UpdateProgress(cmd.Context(), args[0], args[1], completed)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newAdviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise <user-id> <message>",
		Short: "Ask for career advice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				res, err := a.svc.Advise(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <user-id>",
		Short: "Show a user's advice chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				msgs, err := a.svc.ChatHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), msgs)
			})
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Check which model candidates can be instantiated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				out := cmd.OutOrStdout()
				for _, status := range a.chain.Probe() {
					if status.Err != nil {
						fmt.Fprintf(out, "  %-32s unavailable: %v\n", status.Model, status.Err)
					} else {
						fmt.Fprintf(out, "  %-32s ok\n", status.Model)
					}
				}

				lister, ok := a.provider.(llm.Lister)
				if !ok {
					return nil
				}
				served, err := lister.ListModels(cmd.Context())
				if err != nil {
					a.logger.Warn("Model discovery failed", "error", err)
					return nil
				}
				fmt.Fprintf(out, "\nServed by %s (%d):\n", a.provider.Name(), len(served))
				for _, id := range served {
					fmt.Fprintf(out, "  %s\n", id)
				}
				return nil
			})
		},
	}
}

func newBatchCmd() *cobra.Command {
	var (
		inputPath   string
		resume      string
		metricsAddr string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate roadmaps for many users",
		Long: `Generate roadmaps for every user in a JSONL input file. Results are
written to a session directory under the configured output dir. An
interrupted session can be resumed; users with a successful record are
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), inputPath, resume, metricsAddr, concurrency)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSONL file of {user_id, answers} jobs")
	cmd.Flags().StringVar(&resume, "resume", "", "Session directory name to resume")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Worker count (overrides config)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(ctx context.Context, inputPath, resume, metricsAddr string, concurrency int) error {
	cfg, secrets, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Batch.Concurrency = concurrency
	}
	if metricsAddr != "" {
		cfg.Metrics.ListenAddr = metricsAddr
	}

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	jobs, err := orchestrator.ReadJobs(input)
	_ = input.Close()
	if err != nil {
		return err
	}

	console := writer.NewConsoleLogger(os.Stderr, logLevel())
	sessionMgr, err := writer.NewSessionManager(cfg.Batch.OutputDir, resume, console)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger, logFile, err := writer.SetupLogger(sessionMgr, os.Stderr, logLevel())
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logFile.Sync()
		_ = logFile.Close()
	}()
	sessionMgr.SetLogger(logger)

	logger.Info("PathForge batch starting",
		"version", Version,
		"input", inputPath,
		"jobs", len(jobs),
		"session_dir", sessionMgr.GetSessionDir())

	if configPath != "" {
		if err := sessionMgr.BackupConfig(configPath); err != nil {
			logger.Warn("Failed to backup config", "error", err)
		}
	}

	skip, err := writer.CompletedUsers(sessionMgr.GetResultsPath())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, secrets, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, cfg.Metrics.ListenAddr); err != nil {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	results, err := writer.NewResultsWriter(sessionMgr, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := results.Close(); err != nil {
			logger.Error("Failed to close results writer", "error", err)
		}
	}()

	orch := orchestrator.New(a.svc, results, cfg.Batch.Concurrency, logger,
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithProgressOutput(os.Stderr))

	stats, runErr := orch.Run(ctx, jobs, skip)
	if err := sessionMgr.WriteSummary(stats); err != nil {
		logger.Error("Failed to write summary", "error", err)
	}

	if errors.Is(runErr, context.Canceled) {
		sessionDir := filepath.Base(sessionMgr.GetSessionDir())
		logger.Warn("Batch interrupted",
			"session_dir", sessionDir,
			"resume_command", fmt.Sprintf("pathforge batch --input %s --resume %s", inputPath, sessionDir))
		return fmt.Errorf("batch interrupted (resume with --resume %s)", sessionDir)
	}
	return runErr
}

// withApp opens the app, runs fn and closes it
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}
