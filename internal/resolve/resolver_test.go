package resolve

import (
	"testing"

	"github.com/mdreorg/mdreorg/internal/model"
)

// TestResolverResolve tests classification and path computation for the
// reference target forms that show up in documentation corpora.
func TestResolverResolve(t *testing.T) {
	t.Parallel()

	r := New("/repo/docs")

	tests := []struct {
		name     string
		owner    string
		raw      string
		class    model.ResolutionClass
		target   string
		fragment string
	}{
		{
			name:   "sibling file",
			owner:  "guides/setup.md",
			raw:    "install.md",
			class:  model.ResolvedFile,
			target: "guides/install.md",
		},
		{
			name:   "explicit current directory prefix",
			owner:  "guides/setup.md",
			raw:    "./install.md",
			class:  model.ResolvedFile,
			target: "guides/install.md",
		},
		{
			name:   "parent directory traversal",
			owner:  "guides/setup.md",
			raw:    "../reference/api.md",
			class:  model.ResolvedFile,
			target: "reference/api.md",
		},
		{
			name:   "root-level owner",
			owner:  "README.md",
			raw:    "guides/setup.md",
			class:  model.ResolvedFile,
			target: "guides/setup.md",
		},
		{
			name:   "repository-absolute target",
			owner:  "guides/deep/nested.md",
			raw:    "/reference/api.md",
			class:  model.ResolvedFile,
			target: "reference/api.md",
		},
		{
			name:     "fragment preserved verbatim",
			owner:    "guides/setup.md",
			raw:      "install.md#prerequisites",
			class:    model.ResolvedFile,
			target:   "guides/install.md",
			fragment: "#prerequisites",
		},
		{
			name:   "percent-encoded space",
			owner:  "notes/a.md",
			raw:    "meeting%20notes.md",
			class:  model.ResolvedFile,
			target: "notes/meeting notes.md",
		},
		{
			name:   "angle-bracket protected target",
			owner:  "notes/a.md",
			raw:    "<meeting notes.md>",
			class:  model.ResolvedFile,
			target: "notes/meeting notes.md",
		},
		{
			name:   "file URL inside root",
			owner:  "guides/setup.md",
			raw:    "file:///repo/docs/reference/api.md",
			class:  model.ResolvedFile,
			target: "reference/api.md",
		},
		{
			name:  "http is external",
			owner: "README.md",
			raw:   "https://example.com/page",
			class: model.ResolvedExternal,
		},
		{
			name:  "mailto is external",
			owner: "README.md",
			raw:   "mailto:team@example.com",
			class: model.ResolvedExternal,
		},
		{
			name:     "pure anchor",
			owner:    "README.md",
			raw:      "#installation",
			class:    model.ResolvedAnchor,
			fragment: "#installation",
		},
		{
			name:  "empty target is malformed",
			owner: "README.md",
			raw:   "   ",
			class: model.ResolvedMalformed,
		},
		{
			name:  "unsupported scheme is malformed",
			owner: "README.md",
			raw:   "ftp://host/file.md",
			class: model.ResolvedMalformed,
		},
		{
			name:  "escape above root is malformed",
			owner: "README.md",
			raw:   "../outside.md",
			class: model.ResolvedMalformed,
		},
		{
			name:  "file URL outside root is malformed",
			owner: "README.md",
			raw:   "file:///etc/passwd",
			class: model.ResolvedMalformed,
		},
		{
			name:  "file URL without absolute path is malformed",
			owner: "README.md",
			raw:   "file://relative.md",
			class: model.ResolvedMalformed,
		},
		{
			name:  "bad percent-encoding is malformed",
			owner: "README.md",
			raw:   "bad%zz.md",
			class: model.ResolvedMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := r.Resolve(tt.owner, tt.raw)
			if res.Class != tt.class {
				t.Fatalf("expected class %v, got %v (reason: %s)", tt.class, res.Class, res.Reason)
			}
			if res.Target != tt.target {
				t.Errorf("expected target %q, got %q", tt.target, res.Target)
			}
			if res.Fragment != tt.fragment {
				t.Errorf("expected fragment %q, got %q", tt.fragment, res.Fragment)
			}
		})
	}
}

// TestMalformedHasReason verifies that malformed resolutions always carry
// a human-readable reason for the warning list.
func TestMalformedHasReason(t *testing.T) {
	t.Parallel()

	r := New("/repo")
	for _, raw := range []string{"", "ftp://x", "../up.md", "file://x"} {
		res := r.Resolve("a.md", raw)
		if res.Class != model.ResolvedMalformed {
			t.Fatalf("expected malformed for %q, got %v", raw, res.Class)
		}
		if res.Reason == "" {
			t.Errorf("expected reason for %q", raw)
		}
	}
}

// TestNormalizePath tests repository-relative path normalization.
func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a/b.md", "a/b.md"},
		{"./a/b.md", "a/b.md"},
		{"a//b.md", "a/b.md"},
		{"a/./b.md", "a/b.md"},
		{"a/x/../b.md", "a/b.md"},
		{".", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestRelativeTo tests re-expressing repository-relative targets as
// relative links from a Document's directory.
func TestRelativeTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fromDir string
		target  string
		want    string
	}{
		{"root owner", ".", "guides/setup.md", "guides/setup.md"},
		{"same directory", "guides", "guides/install.md", "install.md"},
		{"child directory", "guides", "guides/deep/a.md", "deep/a.md"},
		{"sibling directory", "guides", "reference/api.md", "../reference/api.md"},
		{"up to root-level file", "guides/deep", "README.md", "../../README.md"},
		{"shared prefix stops at filename", "a", "a.md", "../a.md"},
		{"deep common prefix", "a/b/c", "a/b/x.md", "../x.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RelativeTo(tt.fromDir, tt.target); got != tt.want {
				t.Errorf("RelativeTo(%q, %q) = %q, want %q", tt.fromDir, tt.target, got, tt.want)
			}
		})
	}
}

// TestRelativeToRoundTrip verifies that resolving a link produced by
// RelativeTo lands back on the original target.
func TestRelativeToRoundTrip(t *testing.T) {
	t.Parallel()

	r := New("/repo")

	cases := []struct {
		owner  string
		target string
	}{
		{"README.md", "guides/setup.md"},
		{"guides/setup.md", "guides/install.md"},
		{"guides/setup.md", "reference/api.md"},
		{"a/b/c/deep.md", "README.md"},
		{"a/b.md", "a.md"},
	}

	for _, tc := range cases {
		fromDir := "."
		if idx := lastSlash(tc.owner); idx >= 0 {
			fromDir = tc.owner[:idx]
		}
		link := RelativeTo(fromDir, tc.target)

		res := r.Resolve(tc.owner, link)
		if res.Class != model.ResolvedFile {
			t.Fatalf("round trip of %q from %q: expected file class, got %v", tc.target, tc.owner, res.Class)
		}
		if res.Target != tc.target {
			t.Errorf("round trip of %q from %q: got %q via link %q", tc.target, tc.owner, res.Target, link)
		}
	}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
