package pipeline

import (
	"context"
	"log/slog"

	"github.com/mdreorg/mdreorg/internal/integrity"
	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/planner"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/mdreorg/mdreorg/internal/rewrite"
	"github.com/mdreorg/mdreorg/internal/scan"
)

// LoadStep builds the initial tree snapshot: every file path under the
// root plus the decoded Markdown Documents.
type LoadStep struct {
	// workers bounds concurrent file reads. 1 means fully sequential.
	workers int

	// excludes are path patterns to leave out of the snapshot.
	excludes []string

	// logger for structured logging.
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithWorkers bounds the number of concurrent file reads during loading.
func WithWorkers(n int) LoadStepOption {
	return func(s *LoadStep) {
		s.workers = n
	}
}

// WithExcludes sets path patterns excluded from the snapshot.
func WithExcludes(patterns []string) LoadStepOption {
	return func(s *LoadStep) {
		s.excludes = patterns
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates the snapshot-loading step.
func NewLoadStep(opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string { return "load" }

// Do walks the tree and stores the snapshot on the report.
func (s *LoadStep) Do(ctx context.Context, report *model.RunReport) error {
	snap, err := loadTree(ctx, report.Root, s.workers, s.excludes)
	if err != nil {
		return err
	}

	report.Documents = snap.documents
	report.Files = snap.files
	report.Warnings = append(report.Warnings, snap.warnings...)

	s.logger.Info("tree loaded",
		"documents", len(snap.documents),
		"files", len(snap.files),
		"warnings", len(snap.warnings),
	)
	return nil
}

// ExtractStep runs the link extractor over every Document in the snapshot
// and records the references in document order.
type ExtractStep struct {
	logger *slog.Logger
}

// NewExtractStep creates the reference-extraction step.
func NewExtractStep(logger *slog.Logger) *ExtractStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return "extract" }

// Do extracts references from every Document, iterating paths in sorted
// order so the reference list is deterministic.
func (s *ExtractStep) Do(_ context.Context, report *model.RunReport) error {
	for _, p := range report.DocumentPaths() {
		report.References = append(report.References, scan.Extract(report.Documents[p])...)
	}
	s.logger.Info("references extracted", "count", len(report.References))
	return nil
}

// PlanStep validates the user-supplied move plan and expands it into
// file-level moves and text patches. A validation failure aborts the run
// before any mutation.
type PlanStep struct {
	plan     *model.MovePlan
	resolver *resolve.Resolver
	logger   *slog.Logger
}

// NewPlanStep creates the plan validation and expansion step.
func NewPlanStep(plan *model.MovePlan, resolver *resolve.Resolver, logger *slog.Logger) *PlanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStep{plan: plan, resolver: resolver, logger: logger}
}

// Name returns the step name.
func (s *PlanStep) Name() string { return "plan" }

// Do expands the plan onto the report.
func (s *PlanStep) Do(_ context.Context, report *model.RunReport) error {
	expanded, err := planner.Expand(report, s.plan, s.resolver)
	if err != nil {
		return err
	}
	report.Plan = expanded

	s.logger.Info("plan expanded",
		"moves", len(expanded.FileMoves),
		"patches", len(expanded.Patches),
		"unresolved", len(expanded.Unresolved),
	)
	return nil
}

// MoveStep executes the plan's file moves. It runs before any text patch
// so later phases see the final layout.
type MoveStep struct {
	rewriter *rewrite.Rewriter
	logger   *slog.Logger
}

// NewMoveStep creates the file-move step.
func NewMoveStep(rw *rewrite.Rewriter, logger *slog.Logger) *MoveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &MoveStep{rewriter: rw, logger: logger}
}

// Name returns the step name.
func (s *MoveStep) Name() string { return "move" }

// Do applies the file moves.
func (s *MoveStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Plan == nil || len(report.Plan.FileMoves) == 0 {
		return nil
	}
	if err := s.rewriter.ApplyMoves(report.Plan); err != nil {
		return err
	}
	s.logger.Info("files moved", "count", len(report.Plan.FileMoves))
	return nil
}

// PatchStep applies the plan's text patches. Per-file failures are
// isolated in the rewrite results; they never abort the batch.
type PatchStep struct {
	rewriter *rewrite.Rewriter
	logger   *slog.Logger
}

// NewPatchStep creates the text-patching step.
func NewPatchStep(rw *rewrite.Rewriter, logger *slog.Logger) *PatchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatchStep{rewriter: rw, logger: logger}
}

// Name returns the step name.
func (s *PatchStep) Name() string { return "patch" }

// Do applies the patches and records per-Document results.
func (s *PatchStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Plan == nil {
		return nil
	}
	report.RewriteResults = s.rewriter.ApplyPatches(report.Plan)

	failed := 0
	for _, res := range report.RewriteResults {
		if res.Error != "" {
			failed++
			report.AddWarning(res.Path, 0, "rewrite failed: "+res.Error)
		}
	}
	s.logger.Info("patches applied",
		"files", len(report.RewriteResults),
		"failed", failed,
	)
	return nil
}

// VerifyStep re-scans the tree from scratch and produces the final
// integrity report. By default it takes a fresh snapshot: after moves
// and patches the load-phase snapshot no longer describes the disk.
type VerifyStep struct {
	resolver *resolve.Resolver
	workers  int
	excludes []string
	reuse    bool
	logger   *slog.Logger
}

// VerifyStepOption configures a VerifyStep.
type VerifyStepOption func(*VerifyStep)

// WithVerifyWorkers bounds concurrent file reads during re-scanning.
func WithVerifyWorkers(n int) VerifyStepOption {
	return func(s *VerifyStep) {
		s.workers = n
	}
}

// WithVerifyExcludes sets path patterns excluded from the re-scan.
func WithVerifyExcludes(patterns []string) VerifyStepOption {
	return func(s *VerifyStep) {
		s.excludes = patterns
	}
}

// WithReuseSnapshot makes the step check the documents already on the
// report instead of re-reading the tree. Only safe when no earlier step
// mutated the filesystem.
func WithReuseSnapshot() VerifyStepOption {
	return func(s *VerifyStep) {
		s.reuse = true
	}
}

// WithVerifyLogger sets a custom logger for the verify step.
func WithVerifyLogger(logger *slog.Logger) VerifyStepOption {
	return func(s *VerifyStep) {
		s.logger = logger
	}
}

// NewVerifyStep creates the final integrity-check step.
func NewVerifyStep(resolver *resolve.Resolver, opts ...VerifyStepOption) *VerifyStep {
	s := &VerifyStep{resolver: resolver, workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *VerifyStep) Name() string { return "verify" }

// Do snapshots the tree and classifies every reference.
func (s *VerifyStep) Do(ctx context.Context, report *model.RunReport) error {
	docs := report.Documents
	files := report.Files
	if !s.reuse || docs == nil {
		snap, err := loadTree(ctx, report.Root, s.workers, s.excludes)
		if err != nil {
			return err
		}
		report.Warnings = append(report.Warnings, snap.warnings...)
		docs = snap.documents
		files = snap.files
	}

	checker := integrity.New(s.resolver, integrity.WithLogger(s.logger))
	integrityReport, warnings := checker.Check(docs, files)
	report.Integrity = integrityReport
	report.Warnings = append(report.Warnings, warnings...)

	s.logger.Info("integrity checked",
		"ok", integrityReport.OKCount,
		"broken", integrityReport.BrokenCount,
		"external", integrityReport.ExternalCount,
	)
	return nil
}
