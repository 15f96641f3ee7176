package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// pathKeys contains attribute keys whose values are known to hold
// filesystem paths. Values under these keys are always rewritten when
// they fall inside the repository root.
var pathKeys = map[string]bool{
	"path":     true,
	"file":     true,
	"owner":    true,
	"target":   true,
	"from":     true,
	"to":       true,
	"root":     true,
	"plan":     true,
	"database": true,
}

// PathHandler wraps an slog.Handler to rewrite absolute paths under the
// repository root into repository-relative form. It intercepts log
// records and rewrites attribute values before passing them to the
// underlying handler.
//
// A handler wrapper integrates with standard slog APIs and works with
// any underlying handler (text, JSON, etc.), so every component that
// accepts a *slog.Logger gets the rewriting for free.
type PathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// root is the absolute repository root, slash-separated, no trailing slash.
	root string
}

// NewPathHandler creates a new PathHandler wrapping the given handler.
// Attribute values containing absolute paths under root are rewritten to
// repository-relative paths. If handler is nil, the returned PathHandler
// uses slog.Default().Handler().
func NewPathHandler(handler slog.Handler, root string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PathHandler{
		handler: handler,
		root:    strings.TrimSuffix(filepath.ToSlash(filepath.Clean(root)), "/"),
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it to the underlying handler.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rewritten before being added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewrittenAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewrittenAttrs[i] = h.rewriteAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(rewrittenAttrs), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), root: h.root}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *PathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewrittenAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewrittenAttrs[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewrittenAttrs...)}
	}

	if a.Value.Kind() != slog.KindString || h.root == "" {
		return a
	}

	val := a.Value.String()
	if pathKeys[strings.ToLower(a.Key)] || strings.HasPrefix(filepath.ToSlash(val), h.root+"/") {
		if rel, ok := h.relativize(val); ok {
			return slog.String(a.Key, rel)
		}
	}
	return a
}

// relativize turns an absolute path under the root into a relative one.
// The root itself becomes ".".
func (h *PathHandler) relativize(val string) (string, bool) {
	v := filepath.ToSlash(val)
	if v == h.root {
		return ".", true
	}
	if rel, ok := strings.CutPrefix(v, h.root+"/"); ok {
		return rel, true
	}
	return val, false
}

// NewLogger creates a new slog.Logger writing text output with
// repository-relative paths.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - root: The repository root used for path rewriting
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, root string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewPathHandler(textHandler, root))
}

// NewJSONLogger creates a new slog.Logger writing JSON output with
// repository-relative paths. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, root string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewPathHandler(jsonHandler, root))
}
