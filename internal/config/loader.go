package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdreorg/mdreorg/internal/model"
)

// File is the YAML move-plan file format:
//
//	moves:
//	  - from: skills/README.md
//	    to: architecture/README.md
//	exclude:
//	  - vendor/**
type File struct {
	// Moves lists the requested relocations, file- or directory-level.
	Moves []model.Move `yaml:"moves"`

	// Exclude are path patterns excluded from scanning.
	Exclude []string `yaml:"exclude"`
}

// LoadPlanFile loads a move plan from a YAML file.
// If the file does not exist, it returns ErrPlanNotFound so callers can
// decide whether a missing file is fatal (explicit path) or fine
// (default path search).
func LoadPlanFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided plan path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	return &f, nil
}

// FindPlanFile locates the move-plan file:
// 1. If planPath is specified, use it directly.
// 2. Otherwise look for .mdreorg.yaml in the repository root.
//
// Returns the path if found, or empty string if not.
func FindPlanFile(planPath, root string) string {
	if planPath != "" {
		if _, err := os.Stat(planPath); err == nil {
			return planPath
		}
		return ""
	}

	candidate := filepath.Join(root, DefaultPlanFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// ParseInlineMove parses an "old=new" pair from the --move flag.
func ParseInlineMove(s string) (model.Move, error) {
	from, to, ok := strings.Cut(s, "=")
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return model.Move{}, fmt.Errorf("%w: %q", ErrInvalidInlineMove, s)
	}
	return model.Move{From: from, To: to}, nil
}

// BuildMovePlan merges the plan file's moves (if any) with inline moves
// into the skeleton plan the planner expands.
func (c *Config) BuildMovePlan() (*model.MovePlan, error) {
	plan := &model.MovePlan{}

	explicit := c.PlanFilePath != ""
	if path := FindPlanFile(c.PlanFilePath, c.Root); path != "" {
		f, err := LoadPlanFile(path)
		if err != nil {
			return nil, err
		}
		plan.Moves = append(plan.Moves, f.Moves...)
		c.Exclude = append(c.Exclude, f.Exclude...)
	} else if explicit {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, c.PlanFilePath)
	}

	for _, s := range c.InlineMoves {
		m, err := ParseInlineMove(s)
		if err != nil {
			return nil, err
		}
		plan.Moves = append(plan.Moves, m)
	}

	return plan, nil
}
