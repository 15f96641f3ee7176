package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdreorg/mdreorg/internal/config"
	"github.com/mdreorg/mdreorg/internal/database"
	"github.com/mdreorg/mdreorg/internal/log"
	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/pipeline"
	"github.com/mdreorg/mdreorg/internal/report"
	"github.com/spf13/cobra"
)

// addPlanFlags registers the flags shared by plan and apply.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("plan-file", "p", "",
		"Move-plan file path (default: .mdreorg.yaml in the repository root)")
	cmd.Flags().StringArrayP("move", "m", nil,
		"Inline move as old=new (repeatable, applied after the plan file)")
}

// addScanFlags registers the flags shared by every scanning command.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("exclude", "x", nil,
		"Path pattern to skip while scanning (repeatable, e.g. vendor/**)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent file readers")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the optional
// positional root argument.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("repository root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}
	cfg.Root = absRoot

	if f := cmd.Flags().Lookup("plan-file"); f != nil {
		cfg.PlanFilePath, err = cmd.Flags().GetString("plan-file")
		if err != nil {
			return nil, err
		}
		cfg.InlineMoves, err = cmd.Flags().GetStringArray("move")
		if err != nil {
			return nil, err
		}
	}

	cfg.Exclude, err = cmd.Flags().GetStringArray("exclude")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupRun validates the config, sets up logging and a signal-aware
// context. The returned cancel function must be deferred.
func setupRun(cfg *config.Config) (context.Context, context.CancelFunc, *slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Root, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel, logger, nil
}

// runPipeline executes the assembled pipeline for one mode and handles
// report output and history storage. It returns errBrokenReferences when
// the integrity check found BROKEN references.
func runPipeline(ctx context.Context, cfg *config.Config, mode string, p *pipeline.Pipeline, logger *slog.Logger) error {
	runReport := model.NewRunReport(cfg.Root, mode)

	startTime := time.Now()
	err := p.Execute(ctx, runReport)
	runReport.FinishedAt = time.Now()
	if err != nil {
		return err
	}
	logger.Info("run completed",
		"mode", mode,
		"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
	)

	if outErr := outputReport(cfg, runReport); outErr != nil {
		logger.Error("report output failed", "error", outErr)
	}

	if cfg.SaveHistory {
		if saveErr := saveRunReport(ctx, cfg, runReport, logger); saveErr != nil {
			logger.Error("failed to save run history", "error", saveErr)
		}
	}

	if runReport.Integrity != nil && runReport.Integrity.HasBroken() {
		return errBrokenReferences
	}
	return nil
}

// outputReport writes the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithIndent(true))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(runReport)
	return err
}

// saveRunReport records the run in the history database.
func saveRunReport(ctx context.Context, cfg *config.Config, runReport *model.RunReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveRunReport(ctx, runReport)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", runID, "database", cfg.DBDir)
	return nil
}
