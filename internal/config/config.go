package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultPlanFile is the plan/config file name searched for in the
	// repository root when no explicit path is given.
	DefaultPlanFile = ".mdreorg.yaml"

	// DefaultWorkers is the number of concurrent file readers during
	// the scan phases. The run is a strictly phased batch job; reading
	// is the only part that parallelizes, and 1 keeps it fully
	// sequential, which is plenty for corpora of hundreds of files.
	DefaultWorkers = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "mdreorg"
)

// Config holds all options for one mdreorg invocation.
// It is populated from CLI flags and the plan file, then passed through
// the application via dependency injection rather than global state.
type Config struct {
	// Root is the repository root path. All Document paths are
	// expressed relative to it.
	Root string

	// PlanFilePath is the path to the YAML move-plan file. If empty,
	// DefaultPlanFile is searched for in the root.
	PlanFilePath string

	// InlineMoves holds "old=new" move pairs supplied directly on the
	// command line, merged after the plan file's moves.
	InlineMoves []string

	// Exclude are path patterns left out of scanning entirely,
	// typically vendored or generated trees.
	Exclude []string

	// Workers bounds concurrent file reads while building snapshots.
	Workers int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written there instead of stdout.
	ReportFile string

	// SaveHistory indicates whether to record the run in the history
	// database for later comparison via `mdreorg history`.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero, and it documents
// what the defaults are.
func NewConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		SaveHistory: true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mdreorg.
// On Linux: ~/.local/share/mdreorg
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for mdreorg.
// On Linux: ~/.cache/mdreorg
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid, returning a specific
// error describing the first problem found. It is called once after CLI
// parsing, before any scanning begins.
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrNoRoot
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
