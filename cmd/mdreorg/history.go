package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/mdreorg/mdreorg/internal/config"
	"github.com/mdreorg/mdreorg/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists past runs recorded in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [root]",
		Short: "List past runs recorded in the history database",
		Long: `History lists past check, plan and apply runs from the history
database, newest first. Each run records its mode, document count,
move and patch counts, and the integrity totals, so link health can
be tracked across reorganizations.

Examples:
  # List recent runs for the current repository
  mdreorg history

  # List runs across all repositories
  mdreorg history --all

  # Show the broken references recorded for run 12
  mdreorg history --broken 12

  # Limit the listing
  mdreorg history -n 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("all", "a", false,
		"List runs for every repository, not just the current root")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list")
	cmd.Flags().Int64P("broken", "b", 0,
		"Show the broken references recorded for a run ID (use the listing to find IDs)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	brokenRunID, err := cmd.Flags().GetInt64("broken")
	if err != nil {
		return err
	}

	root := ""
	if !all {
		r := "."
		if len(args) > 0 {
			r = args[0]
		}
		root, err = filepath.Abs(r)
		if err != nil {
			return fmt.Errorf("failed to resolve root %q: %w", r, err)
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if brokenRunID > 0 {
		return showBrokenRefs(ctx, cmd, db, brokenRunID)
	}

	records, err := db.ListRuns(ctx, root, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tMODE\tDOCS\tMOVES\tPATCHES\tOK\tBROKEN\tEXTERNAL\tROOT")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			rec.ID,
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Mode,
			rec.DocumentCount,
			rec.MoveCount,
			rec.PatchCount,
			rec.OKCount,
			rec.BrokenCount,
			rec.ExternalCount,
			rec.Root,
		)
	}
	return w.Flush()
}

// showBrokenRefs prints the broken references stored for one run.
func showBrokenRefs(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, runID int64) error {
	refs, err := db.BrokenRefs(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load broken references for run %d: %w", runID, err)
	}

	if len(refs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No broken references recorded for run %d.\n", runID)
		return nil
	}

	for _, r := range refs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", r.Owner, r.Line, r.Target)
	}
	return nil
}
