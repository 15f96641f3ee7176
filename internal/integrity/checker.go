package integrity

import (
	"log/slog"
	"sort"

	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/mdreorg/mdreorg/internal/scan"
)

// Checker classifies every reference in a tree snapshot.
type Checker struct {
	// resolver resolves raw targets against the repository root.
	resolver *resolve.Resolver

	// logger is used for structured logging during the check.
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets a custom logger for the checker.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker using the given resolver.
func New(resolver *resolve.Resolver, opts ...Option) *Checker {
	c := &Checker{resolver: resolver, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check scans every Document in the snapshot, resolves each reference,
// and produces the integrity report. A reference resolving to a file is
// OK when the file exists in the snapshot and BROKEN otherwise; external
// URLs and pure anchors are EXTERNAL, informational only. Malformed
// references are returned as warnings, never silently dropped.
func (c *Checker) Check(docs map[string]*model.Document, files map[string]bool) (*model.IntegrityReport, []model.Warning) {
	report := &model.IntegrityReport{}
	var warnings []model.Warning

	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		for ref := range scan.References(docs[p]) {
			resol := c.resolver.Resolve(ref.Owner, ref.RawTarget)

			switch resol.Class {
			case model.ResolvedFile:
				status := model.StatusOK
				if !files[resol.Target] {
					status = model.StatusBroken
					c.logger.Debug("broken reference",
						"location", ref.Location(),
						"target", resol.Target,
					)
				}
				report.Add(model.IntegrityEntry{Ref: ref, Status: status, Target: resol.Target})

			case model.ResolvedExternal, model.ResolvedAnchor:
				report.Add(model.IntegrityEntry{Ref: ref, Status: model.StatusExternal})

			case model.ResolvedMalformed:
				warnings = append(warnings, model.Warning{
					Path:    ref.Owner,
					Line:    ref.Line,
					Message: "malformed reference: " + resol.Reason,
				})
			}
		}
	}

	return report, warnings
}
