package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdreorg/mdreorg/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/mdreorg.yaml
var planTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mdreorg plan file",
		Long: `Init creates a new .mdreorg.yaml plan file in the current directory.

The generated file includes:
- An empty moves list with commented file and directory examples
- An empty exclude list with commented patterns
- Documentation for the plan-file format

Examples:
  # Create .mdreorg.yaml in the current directory
  mdreorg init

  # Create a plan file at a specific path
  mdreorg init -o reorg.yaml

  # Force overwrite an existing file
  mdreorg init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultPlanFile,
		"Output file path for the plan file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing plan file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("plan file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := planTemplate.ReadFile("templates/mdreorg.yaml")
	if err != nil {
		return fmt.Errorf("failed to read plan template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}

	fmt.Printf("Created plan file: %s\n", outputPath)
	fmt.Println("\nEdit this file to describe the reorganization:")
	fmt.Println("  - moves: file or directory relocations (from/to pairs)")
	fmt.Println("  - exclude: path patterns to leave out of scanning")

	return nil
}
