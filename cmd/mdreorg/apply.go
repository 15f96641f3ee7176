package main

import (
	"github.com/mdreorg/mdreorg/internal/pipeline"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/mdreorg/mdreorg/internal/rewrite"
	"github.com/spf13/cobra"
)

// NewApplyCmd creates the apply command.
func NewApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [root]",
		Short: "Execute a move plan and rewrite affected links",
		Long: `Apply validates and expands the move plan, performs the file and
directory moves, rewrites every link affected by them, and finally
re-checks the whole tree from disk.

Validation happens before any mutation: an invalid plan exits with
code 2 and leaves the repository untouched. After a successful apply
the exit code is 1 when BROKEN references remain (including breakage
that predated the run) and 0 when the tree is clean.

Examples:
  # Apply the plan from .mdreorg.yaml in the repository root
  mdreorg apply

  # Apply a single inline move
  mdreorg apply -m guides/setup.md=docs/setup.md

  # Apply an explicit plan file and keep a Markdown report
  mdreorg apply -p reorg.yaml --markdown -o reorg-report.md ~/src/docs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runApplyCmd,
	}

	addPlanFlags(cmd)
	addScanFlags(cmd)

	return cmd
}

// runApplyCmd executes the apply command.
func runApplyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel, logger, err := setupRun(cfg)
	if err != nil {
		return err
	}
	defer cancel()

	movePlan, err := cfg.BuildMovePlan()
	if err != nil {
		return err
	}

	resolver := resolve.New(cfg.Root)
	rewriter := rewrite.New(cfg.Root, rewrite.WithLogger(logger))

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoadStep(
			pipeline.WithWorkers(cfg.Workers),
			pipeline.WithExcludes(cfg.Exclude),
			pipeline.WithLoadLogger(logger),
		),
		pipeline.NewExtractStep(logger),
		pipeline.NewPlanStep(movePlan, resolver, logger),
		pipeline.NewMoveStep(rewriter, logger),
		pipeline.NewPatchStep(rewriter, logger),
		pipeline.NewVerifyStep(resolver,
			pipeline.WithVerifyWorkers(cfg.Workers),
			pipeline.WithVerifyExcludes(cfg.Exclude),
			pipeline.WithVerifyLogger(logger),
		),
	)

	return runPipeline(ctx, cfg, "apply", p, logger)
}
