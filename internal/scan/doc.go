// Package scan implements the link extractor: it scans a Document's raw
// text and yields every hyperlink-like reference with its exact source
// location.
//
// The extractor detects Markdown inline links, reference-style link
// definitions, bare file-scheme URLs in prose, and inline HTML anchors.
// Fenced code blocks, inline code spans, and YAML front matter are opaque:
// link-shaped text inside them is never a reference.
//
// References are yielded in document order (ascending line, then column),
// which keeps the Rewriter's diffs deterministic and reviewable.
package scan
