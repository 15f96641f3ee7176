package rewrite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdreorg/mdreorg/internal/model"
)

// Rewriter applies file moves and text patches under a repository root.
type Rewriter struct {
	// root is the absolute repository root path.
	root string

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets a custom logger for the rewriter.
func WithLogger(logger *slog.Logger) Option {
	return func(rw *Rewriter) {
		rw.logger = logger
	}
}

// New creates a Rewriter for the given repository root.
func New(root string, opts ...Option) *Rewriter {
	rw := &Rewriter{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(rw)
	}
	return rw
}

// abs joins a repository-relative path onto the root.
func (rw *Rewriter) abs(rel string) string {
	return filepath.Join(rw.root, filepath.FromSlash(rel))
}

// ApplyMoves executes every file move in the plan. Moves run before text
// patches so subsequent existence checks and patch writes see the final
// layout. On any rename failure the already-performed renames are undone
// (best effort) and an error is returned; a half-moved tree is worse than
// a failed run.
func (rw *Rewriter) ApplyMoves(plan *model.ExpandedPlan) error {
	var done []model.Move

	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			m := done[i]
			_ = os.Rename(rw.abs(m.To), rw.abs(m.From))
		}
	}

	for _, m := range plan.FileMoves {
		dst := rw.abs(m.To)
		if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
			rollback()
			return fmt.Errorf("failed to create directory for %s: %w", m.To, err)
		}
		if err := os.Rename(rw.abs(m.From), dst); err != nil {
			rollback()
			return fmt.Errorf("failed to move %s to %s: %w", m.From, m.To, err)
		}
		done = append(done, m)
		rw.logger.Debug("moved file", "from", m.From, "to", m.To)
	}

	rw.cleanupEmptyDirs(plan.FileMoves)
	return nil
}

// cleanupEmptyDirs removes directories left empty after moves, walking
// from each vacated path's parent upward until the root or a non-empty
// directory is reached. Best effort only.
func (rw *Rewriter) cleanupEmptyDirs(moves []model.Move) {
	cleaned := make(map[string]bool)
	for _, m := range moves {
		dir := filepath.Dir(rw.abs(m.From))
		for {
			rel, err := filepath.Rel(rw.root, dir)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				break
			}
			if cleaned[dir] {
				break
			}
			if err := os.Remove(dir); err != nil {
				break // non-empty or permission error
			}
			cleaned[dir] = true
			dir = filepath.Dir(dir)
		}
	}
}

// ApplyPatches applies the plan's text patches, one Document at a time,
// and returns a per-Document result. Files are addressed by their
// post-move paths. A file whose content no longer matches a patch span is
// restored untouched, reported, and skipped; the batch continues.
func (rw *Rewriter) ApplyPatches(plan *model.ExpandedPlan) []model.RewriteResult {
	byPath := make(map[string][]model.Patch)
	for _, p := range plan.Patches {
		byPath[p.Path] = append(byPath[p.Path], p)
	}

	unresolvedByPath := make(map[string]int)
	for _, ref := range plan.Unresolved {
		owner := plan.MoveTarget(ref.Owner)
		unresolvedByPath[owner]++
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	for p := range unresolvedByPath {
		if _, ok := byPath[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var results []model.RewriteResult
	for _, p := range paths {
		res := rw.patchFile(p, byPath[p])
		res.Unresolved = unresolvedByPath[p]
		results = append(results, res)
	}
	return results
}

// patchFile applies all patches for one Document. The original bytes are
// kept in memory and written back on any failure after the first write,
// so the file is either fully patched or byte-identical to its pre-patch
// state.
func (rw *Rewriter) patchFile(relPath string, patches []model.Patch) model.RewriteResult {
	result := model.RewriteResult{Path: relPath}
	if len(patches) == 0 {
		return result
	}

	fullPath := rw.abs(relPath)
	info, err := os.Stat(fullPath)
	if err != nil {
		result.Error = fmt.Sprintf("stat failed: %v", err)
		rw.logger.Warn("skipping unrewritable file", "path", relPath, "error", err)
		return result
	}
	perm := info.Mode().Perm()

	original, err := os.ReadFile(fullPath)
	if err != nil {
		result.Error = fmt.Sprintf("read failed: %v", err)
		rw.logger.Warn("skipping unrewritable file", "path", relPath, "error", err)
		return result
	}

	patched, applied, err := applyToContent(original, patches)
	if err != nil {
		result.Error = err.Error()
		rw.logger.Warn("skipping unrewritable file", "path", relPath, "error", err)
		return result
	}

	if err := writeFilePreservePerm(fullPath, patched, perm); err != nil {
		// Restore the pre-patch copy rather than leaving the file
		// partially written.
		_ = writeFilePreservePerm(fullPath, original, perm)
		result.Error = fmt.Sprintf("write failed: %v", err)
		rw.logger.Warn("restored file after failed write", "path", relPath, "error", err)
		return result
	}

	result.Rewritten = applied
	rw.logger.Debug("patched file", "path", relPath, "patches", applied)
	return result
}

// applyToContent applies patches to content in memory. Patches on the
// same line are applied right-to-left so earlier spans stay valid. Every
// span is verified against its recorded old text before replacement; a
// mismatch fails the whole file.
func applyToContent(content []byte, patches []model.Patch) ([]byte, int, error) {
	lines := strings.Split(string(content), "\n")

	byLine := make(map[int][]model.Patch)
	for _, p := range patches {
		byLine[p.Line] = append(byLine[p.Line], p)
	}

	applied := 0
	for lineNum, lp := range byLine {
		if lineNum < 1 || lineNum > len(lines) {
			return nil, 0, fmt.Errorf("patch line %d out of range", lineNum)
		}
		idx := lineNum - 1
		line := lines[idx]

		sort.Slice(lp, func(i, j int) bool { return lp[i].StartCol > lp[j].StartCol })
		for _, p := range lp {
			if p.StartCol < 0 || p.EndCol > len(line) || p.StartCol >= p.EndCol {
				return nil, 0, fmt.Errorf("patch span %d:%d out of range on line %d", p.StartCol, p.EndCol, lineNum)
			}
			if got := line[p.StartCol:p.EndCol]; got != p.OldText {
				return nil, 0, fmt.Errorf("span mismatch on line %d: expected %q, found %q", lineNum, p.OldText, got)
			}
			line = line[:p.StartCol] + p.NewText + line[p.EndCol:]
			applied++
		}
		lines[idx] = line
	}

	return []byte(strings.Join(lines, "\n")), applied, nil
}

// writeFilePreservePerm writes data to path with the given permission
// bits. os.WriteFile applies the umask on creation, so os.Chmod ensures
// the exact bits are kept.
func writeFilePreservePerm(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}
