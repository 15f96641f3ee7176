package main

import (
	"github.com/mdreorg/mdreorg/internal/pipeline"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Check link integrity of a Markdown repository",
		Long: `Check scans every Markdown file under the repository root, extracts
all links and reference definitions, and classifies each reference as
OK, BROKEN or EXTERNAL. Nothing is modified.

The exit code is 1 when any reference is BROKEN, 0 when the tree is
clean.

Examples:
  # Check the current directory
  mdreorg check

  # Check a specific repository, skipping vendored docs
  mdreorg check -x vendor/** ~/src/docs

  # Machine-readable result
  mdreorg check --json -o report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	addScanFlags(cmd)

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel, logger, err := setupRun(cfg)
	if err != nil {
		return err
	}
	defer cancel()

	resolver := resolve.New(cfg.Root)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoadStep(
			pipeline.WithWorkers(cfg.Workers),
			pipeline.WithExcludes(cfg.Exclude),
			pipeline.WithLoadLogger(logger),
		),
		pipeline.NewExtractStep(logger),
		pipeline.NewVerifyStep(resolver,
			pipeline.WithReuseSnapshot(),
			pipeline.WithVerifyLogger(logger),
		),
	)

	return runPipeline(ctx, cfg, "check", p, logger)
}
