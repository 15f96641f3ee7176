package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/scan"
)

// treeSnapshot is one immutable view of the repository: every file path,
// plus the decoded Markdown Documents. Phases consume a snapshot and never
// mutate it; the verify phase takes a fresh one after the rewriter ran.
type treeSnapshot struct {
	documents map[string]*model.Document
	files     map[string]bool
	warnings  []model.Warning
}

// loadTree walks the repository root and builds a snapshot. Markdown files
// are read and decoded; every other regular file is recorded for existence
// checks only. Hidden files and directories (dotfiles) are skipped, as are
// paths matching the exclude patterns.
//
// File contents are read with at most workers concurrent readers. The walk
// itself and the resulting snapshot stay deterministic regardless of
// worker count; reading is the only parallel part.
func loadTree(ctx context.Context, root string, workers int, excludes []string) (*treeSnapshot, error) {
	if workers < 1 {
		workers = 1
	}

	snap := &treeSnapshot{
		documents: make(map[string]*model.Document),
		files:     make(map[string]bool),
	}

	var mdPaths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, excludes) {
			return nil
		}

		snap.files[rel] = true
		if strings.EqualFold(path.Ext(rel), ".md") {
			mdPaths = append(mdPaths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository tree: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rel := range mdPaths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			full := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(full)
			if err != nil {
				return err
			}

			content, err := scan.Decode(raw)
			if err != nil {
				// An undecodable file is skipped with a warning, not a
				// fatal abort; it stays in the file set so links to it
				// still count as resolvable.
				mu.Lock()
				snap.warnings = append(snap.warnings, model.Warning{
					Path:    rel,
					Message: "encoding failure: " + err.Error(),
				})
				mu.Unlock()
				return nil
			}

			doc := model.NewDocument(rel, content, info.Mode().Perm())
			mu.Lock()
			snap.documents[rel] = doc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return snap, nil
}

// excluded reports whether a repository-relative path matches any exclude
// pattern. A pattern ending in "/**" excludes the whole subtree; other
// patterns use path.Match against the full relative path.
func excluded(rel string, patterns []string) bool {
	for _, pat := range patterns {
		if prefix, ok := strings.CutSuffix(pat, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if ok, err := path.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
