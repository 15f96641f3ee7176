package model

import (
	"sort"
	"time"
)

// RefStatus is the final integrity classification of a Reference.
type RefStatus int

const (
	// StatusOK means the resolved target exists as a Document.
	StatusOK RefStatus = iota

	// StatusBroken means the resolved target does not exist.
	StatusBroken

	// StatusExternal means the reference is not a file reference
	// (external URL or pure anchor) and is skipped from OK/BROKEN
	// classification.
	StatusExternal
)

// String returns a human-readable representation of the status.
func (s RefStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBroken:
		return "BROKEN"
	case StatusExternal:
		return "EXTERNAL"
	default:
		return "unknown"
	}
}

// IntegrityEntry is one classified reference in the final tree.
type IntegrityEntry struct {
	// Ref is the extracted reference.
	Ref Reference `json:"ref"`

	// Status is the integrity classification.
	Status RefStatus `json:"status"`

	// Target is the resolved repository-relative target path, when the
	// reference resolves to a file.
	Target string `json:"target,omitempty"`
}

// IntegrityReport is the set of all classified references after a scan.
// It is the tool's exit signal: a run fails if any entry is BROKEN.
type IntegrityReport struct {
	// Entries holds every classified reference in document order.
	Entries []IntegrityEntry `json:"entries"`

	// OKCount, BrokenCount and ExternalCount are per-status totals.
	OKCount       int `json:"ok_count"`
	BrokenCount   int `json:"broken_count"`
	ExternalCount int `json:"external_count"`
}

// Add records a classified reference and updates the counters.
func (r *IntegrityReport) Add(entry IntegrityEntry) {
	r.Entries = append(r.Entries, entry)
	switch entry.Status {
	case StatusOK:
		r.OKCount++
	case StatusBroken:
		r.BrokenCount++
	case StatusExternal:
		r.ExternalCount++
	}
}

// Broken returns every BROKEN entry. The full list is always reported,
// never truncated, so one run's output is enough to fix every reference.
func (r *IntegrityReport) Broken() []IntegrityEntry {
	var out []IntegrityEntry
	for _, e := range r.Entries {
		if e.Status == StatusBroken {
			out = append(out, e)
		}
	}
	return out
}

// HasBroken reports whether any reference is BROKEN.
func (r *IntegrityReport) HasBroken() bool {
	return r.BrokenCount > 0
}

// RewriteResult summarizes the Rewriter's work on a single Document.
type RewriteResult struct {
	// Path is the post-move repository-relative path of the Document.
	Path string `json:"path"`

	// Rewritten is the number of references patched.
	Rewritten int `json:"rewritten"`

	// Unresolved is the number of references whose target was neither
	// in the plan nor existing before the run (pre-existing breakage,
	// left untouched).
	Unresolved int `json:"unresolved"`

	// Error describes a per-file write failure. The file was restored
	// from its pre-patch copy; the run continued.
	Error string `json:"error,omitempty"`
}

// Warning is a non-fatal condition collected during a run, such as a
// malformed reference or a file that could not be decoded.
type Warning struct {
	// Path is the repository-relative file the warning concerns.
	Path string `json:"path"`

	// Line is the 1-based line number, or 0 when the warning concerns
	// the whole file.
	Line int `json:"line,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// RunReport accumulates the state of one mdreorg invocation as it flows
// through the pipeline. Each step reads the fields earlier phases
// materialized and fills in its own; no step mutates a previous phase's
// output.
type RunReport struct {
	// Root is the absolute repository root path.
	Root string `json:"root"`

	// Mode is the invocation mode: "check", "plan" or "apply".
	Mode string `json:"mode"`

	// StartedAt is the timestamp when the run began.
	StartedAt time.Time `json:"started_at"`

	// Documents is the snapshot arena of all Markdown Documents, keyed
	// by repository-relative path. Built once by the load phase; moves
	// produce a new snapshot rather than mutating this one in place.
	Documents map[string]*Document `json:"-"`

	// Files is the set of every file under the root, Markdown or not.
	// References may target assets (images, snippets) that are never
	// scanned for links but still count as existing for integrity.
	Files map[string]bool `json:"-"`

	// References holds every extracted reference in document order.
	References []Reference `json:"references,omitempty"`

	// Plan is the validated, expanded move plan. Nil in check mode.
	Plan *ExpandedPlan `json:"plan,omitempty"`

	// RewriteResults holds per-Document rewrite outcomes. Only set in
	// apply mode.
	RewriteResults []RewriteResult `json:"rewrite_results,omitempty"`

	// Integrity is the final integrity report. Set by the verify phase.
	Integrity *IntegrityReport `json:"integrity,omitempty"`

	// Warnings collects all non-fatal conditions, in discovery order.
	Warnings []Warning `json:"warnings,omitempty"`

	// PerformedSteps lists the names of the executed pipeline steps.
	PerformedSteps []string `json:"performed_steps"`

	// FinishedAt is the timestamp when the run completed.
	FinishedAt time.Time `json:"finished_at"`
}

// NewRunReport creates an empty run report for the given root and mode.
func NewRunReport(root, mode string) *RunReport {
	return &RunReport{
		Root:      root,
		Mode:      mode,
		StartedAt: time.Now(),
		Documents: make(map[string]*Document),
		Files:     make(map[string]bool),
	}
}

// HasFile reports whether any file (Document or asset) exists at the
// given repository-relative path.
func (r *RunReport) HasFile(path string) bool {
	return r.Files[path]
}

// AddWarning records a non-fatal condition.
func (r *RunReport) AddWarning(path string, line int, message string) {
	r.Warnings = append(r.Warnings, Warning{Path: path, Line: line, Message: message})
}

// DocumentPaths returns the paths of all Documents in sorted order, for
// deterministic iteration over the snapshot arena.
func (r *RunReport) DocumentPaths() []string {
	paths := make([]string, 0, len(r.Documents))
	for p := range r.Documents {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasDocument reports whether a Document exists at the given
// repository-relative path.
func (r *RunReport) HasDocument(path string) bool {
	_, ok := r.Documents[path]
	return ok
}

// MoveCount returns the number of file-level moves in the expanded plan,
// or 0 when no plan is present.
func (r *RunReport) MoveCount() int {
	if r.Plan == nil {
		return 0
	}
	return len(r.Plan.FileMoves)
}

// PatchCount returns the number of planned patches, or 0 when no plan is
// present.
func (r *RunReport) PatchCount() int {
	if r.Plan == nil {
		return 0
	}
	return len(r.Plan.Patches)
}

// Elapsed returns the wall-clock duration of the run.
func (r *RunReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
