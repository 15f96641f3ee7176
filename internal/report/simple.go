package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mdreorg/mdreorg/internal/model"
)

// SimpleWriter outputs human-readable text reports, designed for terminal
// display: per-Document rewrite counts first, then the integrity summary
// with one file:line: target line per BROKEN reference.
type SimpleWriter struct {
	baseWriter

	// showExternal lists external references individually instead of
	// only counting them.
	showExternal bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowExternal lists external references individually.
func WithShowExternal(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showExternal = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writePlan(&sb, report)
	w.writeRewrites(&sb, report)
	w.writeWarnings(&sb, report)
	w.writeIntegrity(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	rule(sb, "=")
	sb.WriteString("                         MDREORG REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Repository: %s\n", report.Root)
	fmt.Fprintf(sb, "Mode:       %s\n", report.Mode)
	fmt.Fprintf(sb, "Date:       %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Documents:  %d (%d files total)\n", len(report.Documents), len(report.Files))
	fmt.Fprintf(sb, "Duration:   %s\n", report.Elapsed().Round(time.Millisecond))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePlan(sb *strings.Builder, report *model.RunReport) {
	if report.Plan == nil {
		return
	}

	rule(sb, "-")
	sb.WriteString("MOVE PLAN\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(report.Plan.FileMoves) == 0 {
		sb.WriteString("  No moves planned.\n\n")
		return
	}

	for _, m := range report.Plan.FileMoves {
		fmt.Fprintf(sb, "  %s -> %s\n", m.From, m.To)
	}
	fmt.Fprintf(sb, "\n  %d move(s), %d predicted patch(es)\n\n",
		len(report.Plan.FileMoves), len(report.Plan.Patches))
}

func (w *SimpleWriter) writeRewrites(sb *strings.Builder, report *model.RunReport) {
	if len(report.RewriteResults) == 0 {
		return
	}

	rule(sb, "-")
	sb.WriteString("REWRITES\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, res := range report.RewriteResults {
		switch {
		case res.Error != "":
			fmt.Fprintf(sb, "  [!] %s: FAILED (%s)\n", res.Path, res.Error)
		case res.Unresolved > 0:
			fmt.Fprintf(sb, "  [~] %s: %d rewritten, %d unresolved\n",
				res.Path, res.Rewritten, res.Unresolved)
		default:
			fmt.Fprintf(sb, "  [+] %s: %d rewritten\n", res.Path, res.Rewritten)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWarnings(sb *strings.Builder, report *model.RunReport) {
	if len(report.Warnings) == 0 {
		return
	}

	rule(sb, "-")
	sb.WriteString("WARNINGS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, warn := range report.Warnings {
		if warn.Line > 0 {
			fmt.Fprintf(sb, "  %s:%d: %s\n", warn.Path, warn.Line, warn.Message)
		} else {
			fmt.Fprintf(sb, "  %s: %s\n", warn.Path, warn.Message)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIntegrity(sb *strings.Builder, report *model.RunReport) {
	if report.Integrity == nil {
		return
	}

	rule(sb, "-")
	sb.WriteString("INTEGRITY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  OK:       %d\n", report.Integrity.OKCount)
	fmt.Fprintf(sb, "  BROKEN:   %d\n", report.Integrity.BrokenCount)
	fmt.Fprintf(sb, "  EXTERNAL: %d\n", report.Integrity.ExternalCount)
	sb.WriteString("\n")

	// The full BROKEN list is always printed, never truncated, so one
	// run's output is enough to fix everything.
	for _, e := range report.Integrity.Broken() {
		fmt.Fprintf(sb, "  BROKEN %s: %s\n", e.Ref.Location(), e.Ref.RawTarget)
	}

	if w.showExternal {
		for _, e := range report.Integrity.Entries {
			if e.Status == model.StatusExternal {
				fmt.Fprintf(sb, "  EXTERNAL %s: %s\n", e.Ref.Location(), e.Ref.RawTarget)
			}
		}
	}

	if report.Integrity.HasBroken() {
		fmt.Fprintf(sb, "\n  Result: FAIL (%d broken reference(s))\n", report.Integrity.BrokenCount)
	} else {
		sb.WriteString("\n  Result: OK\n")
	}
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}
