package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mdreorg/mdreorg/internal/planner"
	"github.com/spf13/cobra"
)

// Exit codes. An invalid move plan is distinguished from broken
// references so scripts can tell "fix your plan" from "fix your links".
const (
	exitOK          = 0
	exitBrokenRefs  = 1
	exitInvalidPlan = 2
)

// errBrokenReferences signals that the run completed but the final tree
// contains BROKEN references. It carries no detail; the report already
// listed every broken reference.
var errBrokenReferences = errors.New("broken references found")

// NewRootCmd creates the root command for mdreorg.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdreorg",
		Short: "Link-integrity checker and reorganizer for Markdown repositories",
		Long: `mdreorg keeps relative links intact while Markdown files move around.

It scans a repository of Markdown documents, extracts every link and
reference definition, and either reports broken references (check),
previews a reorganization (plan), or executes moves and rewrites every
affected link so the tree stays consistent (apply).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewPlanCmd())
	cmd.AddCommand(NewApplyCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return exitOK
	}

	var valErr *planner.ValidationError
	switch {
	case errors.Is(err, errBrokenReferences):
		// The report already printed details; keep stderr quiet.
		return exitBrokenRefs
	case errors.As(err, &valErr):
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidPlan
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitBrokenRefs
	}
}
