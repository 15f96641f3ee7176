package resolve

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/mdreorg/mdreorg/internal/model"
)

// externalSchemes are URL schemes that classify a target as an external
// reference, outside the scope of file integrity checking.
var externalSchemes = []string{"http://", "https://", "mailto:"}

// Resolver resolves raw reference targets against a repository root.
//
// Design decision: The root is fixed at construction rather than passed per
// call because every resolution in a run uses the same root, and file:///
// normalization needs it to re-express absolute paths as repository-relative.
type Resolver struct {
	// root is the absolute, cleaned repository root path.
	root string
}

// New creates a Resolver for the given repository root.
// The root should be an absolute filesystem path.
func New(root string) *Resolver {
	return &Resolver{root: filepath.ToSlash(filepath.Clean(root))}
}

// Resolve classifies a raw target written inside the Document at owner
// (a repository-relative path) and, for file references, computes the
// repository-relative path the target denotes.
//
// An anchor fragment ("#...") is split off the path portion and preserved
// verbatim; fragments are never validated against heading existence.
func (r *Resolver) Resolve(owner, raw string) model.Resolution {
	target := strings.TrimSpace(raw)

	// Markdown permits <target> to protect targets containing spaces.
	if strings.HasPrefix(target, "<") && strings.HasSuffix(target, ">") {
		target = target[1 : len(target)-1]
	}

	if target == "" {
		return malformed("empty target")
	}

	for _, scheme := range externalSchemes {
		if strings.HasPrefix(strings.ToLower(target), scheme) {
			return model.Resolution{Class: model.ResolvedExternal}
		}
	}

	if strings.HasPrefix(target, "file://") {
		return r.resolveFileURL(target)
	}

	// A pure in-document anchor has no path portion to validate.
	if strings.HasPrefix(target, "#") {
		return model.Resolution{Class: model.ResolvedAnchor, Fragment: target}
	}

	// Any other scheme-like prefix (e.g. "ftp://", "data:") is a link we
	// cannot classify as a file reference.
	if scheme := schemePrefix(target); scheme != "" {
		return malformed("unsupported scheme " + scheme)
	}

	pathPart, fragment := splitFragment(target)
	if pathPart == "" {
		return model.Resolution{Class: model.ResolvedAnchor, Fragment: fragment}
	}

	decoded, err := url.PathUnescape(pathPart)
	if err != nil {
		return malformed("invalid percent-encoding in " + pathPart)
	}

	var resolved string
	if strings.HasPrefix(decoded, "/") {
		// Repository-absolute marker: resolved against the root.
		resolved = path.Clean(strings.TrimPrefix(decoded, "/"))
	} else {
		// Relative to the owning Document's parent directory. This is
		// also the rule for targets with no leading "./", the common
		// case in documentation corpora.
		resolved = path.Join(path.Dir(owner), decoded)
	}

	if escapesRoot(resolved) {
		return malformed("target escapes repository root: " + decoded)
	}

	return model.Resolution{
		Class:    model.ResolvedFile,
		Target:   NormalizePath(resolved),
		Fragment: fragment,
	}
}

// resolveFileURL normalizes a file-scheme URL by stripping the scheme and
// re-expressing the absolute filesystem path relative to the repository
// root.
func (r *Resolver) resolveFileURL(target string) model.Resolution {
	rest := strings.TrimPrefix(target, "file://")
	if !strings.HasPrefix(rest, "/") {
		return malformed("file URL without absolute path: " + target)
	}

	pathPart, fragment := splitFragment(rest)
	decoded, err := url.PathUnescape(pathPart)
	if err != nil {
		return malformed("invalid percent-encoding in " + pathPart)
	}

	abs := path.Clean(decoded)
	rel, ok := strings.CutPrefix(abs, r.root+"/")
	if !ok {
		if abs == r.root {
			return malformed("file URL points at the repository root itself")
		}
		return malformed("file URL outside repository root: " + abs)
	}

	return model.Resolution{
		Class:    model.ResolvedFile,
		Target:   NormalizePath(rel),
		Fragment: fragment,
	}
}

// NormalizePath cleans a repository-relative path: forward slashes, no
// leading "./".
func NormalizePath(p string) string {
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// RelativeTo re-expresses target (repository-relative) as a link written
// from inside fromDir (the owner Document's repository-relative directory,
// "." for root-level Documents). The result is a clean relative path such
// as "b.md" or "../guides/b.md".
func RelativeTo(fromDir, target string) string {
	fromDir = NormalizePath(fromDir)
	target = NormalizePath(target)

	if fromDir == "" {
		return target
	}

	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 &&
		fromParts[common] == targetParts[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromParts); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(targetParts[common:], "/"))
	return b.String()
}

// splitFragment splits "path#fragment" into (path, "#fragment").
// Returns (input, "") if no fragment.
func splitFragment(input string) (string, string) {
	if idx := strings.Index(input, "#"); idx != -1 {
		return input[:idx], input[idx:]
	}
	return input, ""
}

// schemePrefix returns the "scheme:" prefix of target if it starts with a
// URL scheme, or "" otherwise. A Windows drive letter ("C:/...") also
// matches; such targets cannot be repository-relative either way.
func schemePrefix(target string) string {
	idx := strings.Index(target, ":")
	if idx <= 0 {
		return ""
	}
	head := target[:idx]
	for i, r := range head {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return ""
		}
	}
	return head + ":"
}

// escapesRoot reports whether a cleaned relative path climbs above the
// repository root.
func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

func malformed(reason string) model.Resolution {
	return model.Resolution{Class: model.ResolvedMalformed, Reason: reason}
}
