package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/mdreorg/mdreorg/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration and
// programmatic processing.
//
// Design decision: We use standard encoding/json rather than a
// third-party JSON library; the report is written once per run, so
// encoding speed is irrelevant.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(indent bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output), indent: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full run report as JSON.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
