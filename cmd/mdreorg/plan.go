package main

import (
	"github.com/mdreorg/mdreorg/internal/pipeline"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [root]",
		Short: "Validate a move plan and preview the resulting rewrites",
		Long: `Plan validates the move plan, expands directory moves into per-file
moves, and reports every link rewrite the plan would cause. Nothing is
modified.

The exit code is 2 when the plan is invalid (destination collisions,
missing sources, moves landing on occupied paths).

Examples:
  # Preview the plan from .mdreorg.yaml in the repository root
  mdreorg plan

  # Preview a single inline move
  mdreorg plan -m guides/setup.md=docs/setup.md

  # Preview a directory move from an explicit plan file
  mdreorg plan -p reorg.yaml ~/src/docs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlanCmd,
	}

	addPlanFlags(cmd)
	addScanFlags(cmd)

	return cmd
}

// runPlanCmd executes the plan command.
func runPlanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel, logger, err := setupRun(cfg)
	if err != nil {
		return err
	}
	defer cancel()

	// Plan-file Exclude patterns merge into cfg.Exclude here, before the
	// load step reads them.
	movePlan, err := cfg.BuildMovePlan()
	if err != nil {
		return err
	}

	resolver := resolve.New(cfg.Root)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoadStep(
			pipeline.WithWorkers(cfg.Workers),
			pipeline.WithExcludes(cfg.Exclude),
			pipeline.WithLoadLogger(logger),
		),
		pipeline.NewExtractStep(logger),
		pipeline.NewPlanStep(movePlan, resolver, logger),
	)

	return runPipeline(ctx, cfg, "plan", p, logger)
}
