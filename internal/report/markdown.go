package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/mdreorg/mdreorg/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, suitable for
// committing next to the reorganized corpus or pasting into a review.
//
// Design decision: We use the nao1215/markdown library for fluent,
// type-safe markdown generation with tables and GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the full run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeMoves(md, report)
	w.writeRewrites(md, report)
	w.writeIntegrity(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("mdreorg Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Repository", "`" + report.Root + "`"},
			{"Mode", report.Mode},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Documents", strconv.Itoa(len(report.Documents))},
			{"Files", strconv.Itoa(len(report.Files))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeMoves(md *markdown.Markdown, report *model.RunReport) {
	if report.Plan == nil {
		return
	}

	md.H2("Move Plan")
	md.PlainText("")

	if len(report.Plan.FileMoves) == 0 {
		md.PlainText("No moves planned.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Plan.FileMoves))
	for i, m := range report.Plan.FileMoves {
		rows[i] = []string{"`" + m.From + "`", "`" + m.To + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"From", "To"},
		Rows:   rows,
	})
	md.PlainTextf("%d move(s), %d predicted patch(es)",
		len(report.Plan.FileMoves), len(report.Plan.Patches))
	md.PlainText("")
}

func (w *MarkdownWriter) writeRewrites(md *markdown.Markdown, report *model.RunReport) {
	if len(report.RewriteResults) == 0 {
		return
	}

	md.H2("Rewrites")
	md.PlainText("")

	rows := make([][]string, len(report.RewriteResults))
	for i, res := range report.RewriteResults {
		status := "ok"
		if res.Error != "" {
			status = "failed: " + res.Error
		}
		rows[i] = []string{
			"`" + res.Path + "`",
			strconv.Itoa(res.Rewritten),
			strconv.Itoa(res.Unresolved),
			status,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Document", "Rewritten", "Unresolved", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIntegrity(md *markdown.Markdown, report *model.RunReport) {
	if report.Integrity == nil {
		return
	}

	md.H2("Integrity")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"OK", strconv.Itoa(report.Integrity.OKCount)},
			{"BROKEN", strconv.Itoa(report.Integrity.BrokenCount)},
			{"EXTERNAL", strconv.Itoa(report.Integrity.ExternalCount)},
		},
	})
	md.PlainText("")

	broken := report.Integrity.Broken()
	if len(broken) == 0 {
		md.Tip("No broken references.")
		md.PlainText("")
		return
	}

	md.Cautionf("%d broken reference(s) detected.", len(broken))
	md.PlainText("")

	rows := make([][]string, len(broken))
	for i, e := range broken {
		rows[i] = []string{"`" + e.Ref.Location() + "`", "`" + e.Ref.RawTarget + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Location", "Target"},
		Rows:   rows,
	})
	md.PlainText("")
}
