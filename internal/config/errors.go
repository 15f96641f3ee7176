package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while keeping the messages
// human-readable.
var (
	// ErrNoRoot is returned when no repository root is specified.
	ErrNoRoot = errors.New("no repository root specified")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrPlanNotFound is returned when an explicitly specified plan file
	// does not exist.
	ErrPlanNotFound = errors.New("move-plan file not found")

	// ErrInvalidInlineMove is returned when an inline --move flag is not
	// of the form "old=new".
	ErrInvalidInlineMove = errors.New("invalid inline move: expected old=new")
)
