package planner

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/resolve"
)

// Expand validates the user-supplied plan against the scanned tree and
// produces the full file-level plan plus every text patch.
//
// Validation precedes all mutation: any returned *ValidationError means
// the tree has not been touched. Expansion requires the complete Document
// snapshot and reference list, so it must run after the scan phase and
// before any move.
func Expand(rep *model.RunReport, plan *model.MovePlan, res *resolve.Resolver) (*model.ExpandedPlan, error) {
	moves, err := expandMoves(rep, plan)
	if err != nil {
		return nil, err
	}

	moveMap := make(map[string]string, len(moves))
	for _, m := range moves {
		moveMap[m.From] = m.To
	}

	expanded := &model.ExpandedPlan{FileMoves: moves}
	computePatches(rep, res, moveMap, expanded)
	return expanded, nil
}

// expandMoves turns the plan skeleton into file-level moves and rejects
// inconsistent plans.
func expandMoves(rep *model.RunReport, plan *model.MovePlan) ([]model.Move, error) {
	if plan.Empty() {
		return nil, nil
	}

	var moves []model.Move
	seenFrom := make(map[string]bool)

	for _, m := range plan.Moves {
		from := resolve.NormalizePath(m.From)
		to := resolve.NormalizePath(m.To)
		if from == "" || to == "" {
			return nil, &ValidationError{Kind: KindMissingSource, Detail: "empty path in move"}
		}
		if from == to {
			continue
		}

		switch {
		case rep.HasFile(from):
			moves = append(moves, model.Move{From: from, To: to})

		case hasDirectory(rep, from):
			// Directory moves imply all contained file moves,
			// preserving relative substructure.
			prefix := from + "/"
			for f := range rep.Files {
				if strings.HasPrefix(f, prefix) {
					moves = append(moves, model.Move{
						From: f,
						To:   to + "/" + strings.TrimPrefix(f, prefix),
					})
				}
			}

		default:
			return nil, &ValidationError{Kind: KindMissingSource, Detail: from}
		}
	}

	sort.Slice(moves, func(i, j int) bool { return moves[i].From < moves[j].From })

	// Keys are unique: the same source must not move twice.
	destOf := make(map[string]string, len(moves))
	for _, m := range moves {
		if seenFrom[m.From] {
			return nil, &ValidationError{
				Kind:   KindCollision,
				Detail: fmt.Sprintf("%s is moved more than once", m.From),
			}
		}
		seenFrom[m.From] = true

		// No two source paths may map to the same destination.
		if prev, ok := destOf[m.To]; ok {
			return nil, &ValidationError{
				Kind:   KindCollision,
				Detail: fmt.Sprintf("%s and %s both move to %s", prev, m.From, m.To),
			}
		}
		destOf[m.To] = m.From
	}

	// A destination that already exists and is not itself moving away
	// would be overwritten: reject before anything happens.
	for _, m := range moves {
		if rep.HasFile(m.To) && !seenFrom[m.To] {
			return nil, &ValidationError{
				Kind:   KindDanglingMove,
				Detail: fmt.Sprintf("%s already exists and is not part of the plan", m.To),
			}
		}

		// Likewise a destination whose parent chain runs through an
		// existing file: MkdirAll would fail mid-apply.
		for dir := path.Dir(m.To); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if rep.HasFile(dir) {
				return nil, &ValidationError{
					Kind:   KindDanglingMove,
					Detail: fmt.Sprintf("%s is a file, not a directory", dir),
				}
			}
		}
	}

	return moves, nil
}

// hasDirectory reports whether any file lives under the given
// repository-relative directory path.
func hasDirectory(rep *model.RunReport, dir string) bool {
	prefix := dir + "/"
	for f := range rep.Files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

// computePatches walks every extracted reference and decides whether its
// written target must change. A patch is needed when the target moved, or
// when the owning Document moved and the relative expression of the link
// no longer points at the same file from the owner's post-move location.
func computePatches(rep *model.RunReport, res *resolve.Resolver, moveMap map[string]string, out *model.ExpandedPlan) {
	for _, ref := range rep.References {
		resol := res.Resolve(ref.Owner, ref.RawTarget)
		if resol.Class != model.ResolvedFile {
			continue
		}

		_, targetMoved := moveMap[resol.Target]
		newOwner, ownerMoved := moveMap[ref.Owner]
		if !targetMoved && !ownerMoved {
			continue
		}
		if !ownerMoved {
			newOwner = ref.Owner
		}

		if !targetMoved && !rep.HasFile(resol.Target) {
			// Pre-existing breakage: the target never existed and is
			// not part of the plan. Left as written; reported, never
			// silently repaired.
			out.Unresolved = append(out.Unresolved, ref)
			continue
		}

		newTarget := resol.Target
		if targetMoved {
			newTarget = moveMap[resol.Target]
		}

		rel := resolve.RelativeTo(path.Dir(newOwner), newTarget)
		newText := formatTarget(ref.RawTarget, rel, resol.Fragment)
		if newText == ref.RawTarget {
			continue
		}

		out.Patches = append(out.Patches, model.Patch{
			Path:     newOwner,
			Line:     ref.Line,
			StartCol: ref.StartCol,
			EndCol:   ref.EndCol,
			OldText:  ref.RawTarget,
			NewText:  newText,
		})
	}
}

// formatTarget re-expresses the computed link the way the original was
// written: the angle-bracket form is preserved, a percent-encoded target
// stays percent-encoded, and a new path containing a space is protected
// with angle brackets.
func formatTarget(raw, rel, fragment string) string {
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		return "<" + rel + fragment + ">"
	}
	if strings.Contains(raw, "%") {
		return strings.ReplaceAll(rel, " ", "%20") + fragment
	}
	if strings.Contains(rel, " ") {
		return "<" + rel + fragment + ">"
	}
	return rel + fragment
}
