package model

// Move relocates one path to another. From and To are repository-relative.
// In a user-supplied plan a Move may name a directory; expansion turns
// directory moves into one file-level Move per contained Document.
type Move struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// MovePlan is the user-supplied reorganization skeleton before validation
// and expansion.
type MovePlan struct {
	// Moves lists the requested relocations, possibly directory-level.
	Moves []Move `json:"moves" yaml:"moves"`
}

// Empty reports whether the plan contains no moves at all.
// Applying an empty plan must produce zero moves and zero patches.
func (p *MovePlan) Empty() bool {
	return p == nil || len(p.Moves) == 0
}

// Patch is a single byte-span replacement inside a Document. Patches are
// addressed by the owning Document's post-move path because file moves
// execute before text patches.
type Patch struct {
	// Path is the post-move repository-relative path of the Document
	// to patch.
	Path string `json:"path"`

	// Line is the 1-based line number of the span.
	Line int `json:"line"`

	// StartCol and EndCol delimit the byte span within the line,
	// half-open [StartCol, EndCol).
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`

	// OldText is the exact text currently occupying the span. The
	// Rewriter verifies it before replacing; a mismatch fails the file.
	OldText string `json:"old_text"`

	// NewText replaces OldText.
	NewText string `json:"new_text"`
}

// ExpandedPlan is the validated, file-level form of a MovePlan plus the
// full set of text patches that keep every link meaning intact.
type ExpandedPlan struct {
	// FileMoves lists every file-level relocation, sorted by source path.
	FileMoves []Move `json:"file_moves"`

	// Patches lists every text replacement in document order (path,
	// then line, then column).
	Patches []Patch `json:"patches"`

	// Unresolved lists references whose target is neither part of the
	// plan nor existing before the run. Pre-existing breakage is never
	// silently fixed or hidden; these surface as BROKEN after apply.
	Unresolved []Reference `json:"unresolved,omitempty"`
}

// MoveTarget returns the post-move path for the given source path, or the
// path unchanged if it is not part of the plan.
func (p *ExpandedPlan) MoveTarget(path string) string {
	for _, m := range p.FileMoves {
		if m.From == path {
			return m.To
		}
	}
	return path
}

// PatchCount returns the total number of patches across all Documents.
func (p *ExpandedPlan) PatchCount() int {
	return len(p.Patches)
}
