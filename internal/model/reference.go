package model

import "fmt"

// RefKind identifies the syntactic form a Reference was written in.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type RefKind int

const (
	// RefKindInline is a Markdown inline link: [label](target).
	RefKindInline RefKind = iota

	// RefKindDefinition is a Markdown reference-style link definition:
	// [label]: target
	RefKindDefinition

	// RefKindFileURL is a bare file-scheme URL embedded in prose,
	// outside any link syntax.
	RefKindFileURL

	// RefKindHTMLAnchor is an href attribute of an inline HTML <a> tag.
	RefKindHTMLAnchor
)

// String returns a human-readable representation of the link kind.
func (k RefKind) String() string {
	switch k {
	case RefKindInline:
		return "inline"
	case RefKindDefinition:
		return "definition"
	case RefKindFileURL:
		return "file-url"
	case RefKindHTMLAnchor:
		return "html-anchor"
	default:
		return "unknown"
	}
}

// Reference is an occurrence of a link inside a Document.
// The column span addresses the raw target string (not the whole link)
// so the Rewriter can patch the target without touching the label.
type Reference struct {
	// Owner is the repository-relative path of the Document containing
	// the reference.
	Owner string `json:"owner"`

	// Line is the 1-based line number of the reference.
	Line int `json:"line"`

	// StartCol and EndCol are 0-based byte offsets of the raw target
	// within the line, half-open [StartCol, EndCol).
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`

	// RawTarget is the target string exactly as written in the source.
	RawTarget string `json:"raw_target"`

	// Kind identifies the syntactic form of the link.
	Kind RefKind `json:"kind"`
}

// Location returns the reference position as "path:line:col" with a
// 1-based column, the format used in report output.
func (r Reference) Location() string {
	return fmt.Sprintf("%s:%d:%d", r.Owner, r.Line, r.StartCol+1)
}

// ResolutionClass classifies the outcome of resolving a reference target.
type ResolutionClass int

const (
	// ResolvedFile means the target denotes a repository file.
	ResolvedFile ResolutionClass = iota

	// ResolvedExternal means the target is an external URL (http, https,
	// mailto) outside the scope of file integrity checking.
	ResolvedExternal

	// ResolvedAnchor means the target is a pure in-document anchor
	// ("#section") with no path portion.
	ResolvedAnchor

	// ResolvedMalformed means the target could not be classified
	// (empty string, malformed scheme, path escaping the repository).
	ResolvedMalformed
)

// String returns a human-readable representation of the resolution class.
func (c ResolutionClass) String() string {
	switch c {
	case ResolvedFile:
		return "file"
	case ResolvedExternal:
		return "external"
	case ResolvedAnchor:
		return "anchor"
	case ResolvedMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Resolution is the result of resolving a Reference's raw target against
// the repository root and the owning Document's directory.
type Resolution struct {
	// Class is the resolution outcome.
	Class ResolutionClass `json:"class"`

	// Target is the repository-relative path the reference denotes.
	// Only meaningful when Class is ResolvedFile.
	Target string `json:"target,omitempty"`

	// Fragment is the anchor portion ("#heading") including the leading
	// "#". Preserved verbatim, never validated against headings.
	Fragment string `json:"fragment,omitempty"`

	// Reason describes why a target is malformed. Only set when Class
	// is ResolvedMalformed.
	Reason string `json:"reason,omitempty"`
}
