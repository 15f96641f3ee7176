package planner

import (
	"errors"
	"testing"

	"github.com/mdreorg/mdreorg/internal/model"
	"github.com/mdreorg/mdreorg/internal/resolve"
	"github.com/mdreorg/mdreorg/internal/scan"
)

// testTree builds a RunReport snapshot from path->content pairs, running
// extraction so references carry real spans. Non-Markdown assets are
// added with addAsset.
type testTree struct {
	rep *model.RunReport
}

func newTestTree(t *testing.T) *testTree {
	t.Helper()
	return &testTree{rep: model.NewRunReport("/repo", "plan")}
}

func (tt *testTree) addDoc(path, content string) *testTree {
	doc := model.NewDocument(path, []byte(content), 0644)
	tt.rep.Documents[path] = doc
	tt.rep.Files[path] = true
	tt.rep.References = append(tt.rep.References, scan.Extract(doc)...)
	return tt
}

func (tt *testTree) addAsset(path string) *testTree {
	tt.rep.Files[path] = true
	return tt
}

func expand(t *testing.T, tt *testTree, moves ...model.Move) (*model.ExpandedPlan, error) {
	t.Helper()
	return Expand(tt.rep, &model.MovePlan{Moves: moves}, resolve.New("/repo"))
}

// TestExpandEmptyPlan verifies that an empty plan produces zero moves and
// zero patches.
func TestExpandEmptyPlan(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).addDoc("a.md", "[b](b.md)\n").addDoc("b.md", "# B\n")

	plan, err := expand(t, tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.FileMoves) != 0 || plan.PatchCount() != 0 {
		t.Errorf("expected empty expansion, got %d moves and %d patches",
			len(plan.FileMoves), plan.PatchCount())
	}
}

// TestExpandTargetMove verifies that moving a file patches every link
// pointing at it.
func TestExpandTargetMove(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).
		addDoc("a.md", "see [b](b.md) for details\n").
		addDoc("b.md", "# B\n")

	plan, err := expand(t, tt, model.Move{From: "b.md", To: "sub/b.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.FileMoves) != 1 {
		t.Fatalf("expected 1 file move, got %d", len(plan.FileMoves))
	}
	if len(plan.Patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %+v", len(plan.Patches), plan.Patches)
	}
	p := plan.Patches[0]
	if p.Path != "a.md" || p.OldText != "b.md" || p.NewText != "sub/b.md" {
		t.Errorf("unexpected patch: %+v", p)
	}
}

// TestExpandOwnerMove verifies that moving a Document re-expresses its
// own links to unmoved targets, addressed by the post-move path.
func TestExpandOwnerMove(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).
		addDoc("a.md", "see [b](b.md)\n").
		addDoc("b.md", "# B\n")

	plan, err := expand(t, tt, model.Move{From: "a.md", To: "sub/a.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %+v", len(plan.Patches), plan.Patches)
	}
	p := plan.Patches[0]
	if p.Path != "sub/a.md" {
		t.Errorf("expected patch addressed to post-move path sub/a.md, got %s", p.Path)
	}
	if p.NewText != "../b.md" {
		t.Errorf("expected ../b.md, got %q", p.NewText)
	}
}

// TestExpandDirectoryMove verifies directory expansion: substructure is
// preserved, internal relative links survive unchanged, and external
// links into the directory are patched.
func TestExpandDirectoryMove(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).
		addDoc("README.md", "read [setup](guides/setup.md)\n").
		addDoc("guides/setup.md", "then [install](install.md)\n").
		addDoc("guides/install.md", "![diagram](img/flow.png)\n").
		addAsset("guides/img/flow.png")

	plan, err := expand(t, tt, model.Move{From: "guides", To: "docs/guides"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.FileMoves) != 3 {
		t.Fatalf("expected 3 file moves, got %d: %+v", len(plan.FileMoves), plan.FileMoves)
	}
	if got := plan.MoveTarget("guides/img/flow.png"); got != "docs/guides/img/flow.png" {
		t.Errorf("expected substructure preserved, got %s", got)
	}

	// guides/setup.md -> install.md and install.md -> img/flow.png move
	// together: their relative expressions are unchanged, so the only
	// patch is README's link into the directory.
	if len(plan.Patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %+v", len(plan.Patches), plan.Patches)
	}
	p := plan.Patches[0]
	if p.Path != "README.md" || p.NewText != "docs/guides/setup.md" {
		t.Errorf("unexpected patch: %+v", p)
	}
}

// TestExpandUnresolved verifies that a moved Document's link to a target
// that never existed is reported, not silently repaired.
func TestExpandUnresolved(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).
		addDoc("a.md", "see [ghost](missing.md)\n")

	plan, err := expand(t, tt, model.Move{From: "a.md", To: "sub/a.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Patches) != 0 {
		t.Errorf("expected no patches for a pre-broken link, got %+v", plan.Patches)
	}
	if len(plan.Unresolved) != 1 || plan.Unresolved[0].RawTarget != "missing.md" {
		t.Fatalf("expected missing.md to be unresolved, got %+v", plan.Unresolved)
	}
}

// TestExpandFragmentPreserved verifies anchors ride along unchanged.
func TestExpandFragmentPreserved(t *testing.T) {
	t.Parallel()

	tt := newTestTree(t).
		addDoc("a.md", "[b](b.md#setup)\n").
		addDoc("b.md", "## Setup\n")

	plan, err := expand(t, tt, model.Move{From: "b.md", To: "sub/b.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Patches) != 1 || plan.Patches[0].NewText != "sub/b.md#setup" {
		t.Fatalf("expected sub/b.md#setup, got %+v", plan.Patches)
	}
}

// TestExpandTargetForm verifies that the written form of a target
// survives rewriting.
func TestExpandTargetForm(t *testing.T) {
	t.Parallel()

	t.Run("angle brackets preserved", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "[b](<my notes.md>)\n").
			addDoc("my notes.md", "# Notes\n")

		plan, err := expand(t, tt, model.Move{From: "my notes.md", To: "sub/my notes.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Patches) != 1 || plan.Patches[0].NewText != "<sub/my notes.md>" {
			t.Fatalf("expected <sub/my notes.md>, got %+v", plan.Patches)
		}
	})

	t.Run("percent encoding preserved", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "[b](my%20notes.md)\n").
			addDoc("my notes.md", "# Notes\n")

		plan, err := expand(t, tt, model.Move{From: "my notes.md", To: "sub/my notes.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Patches) != 1 || plan.Patches[0].NewText != "sub/my%20notes.md" {
			t.Fatalf("expected sub/my%%20notes.md, got %+v", plan.Patches)
		}
	})
}

// TestExpandValidation tests the fatal plan errors, each detected before
// any mutation would happen.
func TestExpandValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).addDoc("a.md", "# A\n")
		_, err := expand(t, tt, model.Move{From: "nope.md", To: "b.md"})
		assertValidation(t, err, KindMissingSource)
	})

	t.Run("destination collision", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "# A\n").
			addDoc("b.md", "# B\n")
		_, err := expand(t, tt,
			model.Move{From: "a.md", To: "c.md"},
			model.Move{From: "b.md", To: "c.md"},
		)
		assertValidation(t, err, KindCollision)
	})

	t.Run("source moved twice", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).addDoc("a.md", "# A\n")
		_, err := expand(t, tt,
			model.Move{From: "a.md", To: "b.md"},
			model.Move{From: "a.md", To: "c.md"},
		)
		assertValidation(t, err, KindCollision)
	})

	t.Run("destination occupied by unmoved file", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "# A\n").
			addDoc("b.md", "# B\n")
		_, err := expand(t, tt, model.Move{From: "a.md", To: "b.md"})
		assertValidation(t, err, KindDanglingMove)
	})

	t.Run("destination parent is a file", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "# A\n").
			addAsset("b")
		_, err := expand(t, tt, model.Move{From: "a.md", To: "b/x.md"})
		assertValidation(t, err, KindDanglingMove)
	})

	t.Run("deep destination ancestor is a file", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "# A\n").
			addAsset("docs")
		_, err := expand(t, tt, model.Move{From: "a.md", To: "docs/sub/x.md"})
		assertValidation(t, err, KindDanglingMove)
	})

	t.Run("swap is valid", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).
			addDoc("a.md", "# A\n").
			addDoc("b.md", "# B\n")
		plan, err := expand(t, tt,
			model.Move{From: "a.md", To: "b.md"},
			model.Move{From: "b.md", To: "a.md"},
		)
		if err != nil {
			t.Fatalf("expected swap to validate, got %v", err)
		}
		if len(plan.FileMoves) != 2 {
			t.Errorf("expected 2 moves, got %d", len(plan.FileMoves))
		}
	})

	t.Run("identity move is dropped", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).addDoc("a.md", "# A\n")
		plan, err := expand(t, tt, model.Move{From: "a.md", To: "a.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.FileMoves) != 0 {
			t.Errorf("expected identity move to be dropped, got %+v", plan.FileMoves)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		tt := newTestTree(t).addDoc("a.md", "# A\n")
		_, err := expand(t, tt, model.Move{From: "a.md", To: ""})
		assertValidation(t, err, KindMissingSource)
	})
}

// assertValidation fails unless err is a ValidationError of the given kind.
func assertValidation(t *testing.T, err error, kind ValidationKind) {
	t.Helper()

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if valErr.Kind != kind {
		t.Errorf("expected kind %v, got %v (%s)", kind, valErr.Kind, valErr.Detail)
	}
}

// TestExpandNoSelfPatchNoise verifies that links whose relative
// expression survives the plan untouched produce no patch.
func TestExpandNoSelfPatchNoise(t *testing.T) {
	t.Parallel()

	// Owner and target move into the same new directory: the sibling
	// link "b.md" still reads "b.md" afterwards.
	tt := newTestTree(t).
		addDoc("a.md", "[b](b.md)\n").
		addDoc("b.md", "# B\n")

	plan, err := expand(t, tt,
		model.Move{From: "a.md", To: "sub/a.md"},
		model.Move{From: "b.md", To: "sub/b.md"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Patches) != 0 {
		t.Errorf("expected no patches, got %+v", plan.Patches)
	}
}
