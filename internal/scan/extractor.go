package scan

import (
	"iter"
	"regexp"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/mdreorg/mdreorg/internal/model"
)

// bareFileURL matches file-scheme URLs embedded directly in prose, outside
// any link syntax. The corpus uses these as plain-text hyperlinks.
var bareFileURL = regexp.MustCompile("file:///[^\\s)\\]>\"'`]+")

// refDefinition matches a Markdown reference-style link definition at the
// start of a line: [label]: target. Up to three leading spaces are allowed,
// matching CommonMark.
var refDefinition = regexp.MustCompile(`^ {0,3}\[[^\[\]]+\]:[ \t]+(\S+)`)

// References returns a lazy, finite, restartable sequence of every
// reference in doc, in document order (ascending line, then column).
// Each call to the returned sequence restarts the scan from the top.
func References(doc *model.Document) iter.Seq[model.Reference] {
	return func(yield func(model.Reference) bool) {
		lines := strings.Split(string(doc.Content), "\n")

		// YAML front matter is opaque metadata, not link-bearing text.
		start := frontMatterEnd(lines) + 1

		fence := ""
		for i := start; i < len(lines); i++ {
			trim := strings.TrimSpace(lines[i])
			if fence != "" {
				if strings.HasPrefix(trim, fence) {
					fence = ""
				}
				continue
			}
			if strings.HasPrefix(trim, "```") {
				fence = "```"
				continue
			}
			if strings.HasPrefix(trim, "~~~") {
				fence = "~~~"
				continue
			}

			for _, ref := range scanLine(doc.Path, lines[i], i+1) {
				if !yield(ref) {
					return
				}
			}
		}
	}
}

// Extract collects every reference in doc into a slice.
func Extract(doc *model.Document) []model.Reference {
	return slices.Collect(References(doc))
}

// span is a half-open byte range [start, end) within a line.
type span struct {
	start, end int
}

func (s span) contains(pos int) bool {
	return pos >= s.start && pos < s.end
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// scanLine extracts all references from a single line outside fenced code.
// The returned references are sorted by column.
func scanLine(owner, line string, lineNum int) []model.Reference {
	code := codeSpans(line)

	var refs []model.Reference
	var taken []span

	add := func(kind model.RefKind, start, end int) {
		if start >= end {
			return
		}
		s := span{start, end}
		for _, t := range taken {
			if s.overlaps(t) {
				return
			}
		}
		taken = append(taken, s)
		refs = append(refs, model.Reference{
			Owner:     owner,
			Line:      lineNum,
			StartCol:  start,
			EndCol:    end,
			RawTarget: line[start:end],
			Kind:      kind,
		})
	}

	// A reference-style definition owns the whole line; its target is the
	// only link-bearing text.
	if m := refDefinition.FindStringSubmatchIndex(line); m != nil {
		add(model.RefKindDefinition, m[2], m[3])
		sortByColumn(refs)
		return refs
	}

	scanInlineLinks(line, code, func(start, end int) {
		add(model.RefKindInline, start, end)
	})
	scanHTMLAnchors(line, code, func(start, end int) {
		add(model.RefKindHTMLAnchor, start, end)
	})

	for _, m := range bareFileURL.FindAllStringIndex(line, -1) {
		if inCode(code, m[0]) {
			continue
		}
		add(model.RefKindFileURL, m[0], trimTrailingPunct(line, m[1]))
	}

	sortByColumn(refs)
	return refs
}

// trimTrailingPunct backs a bare-URL match off trailing prose punctuation.
// These are legal URL bytes, but at the end of a match they are far more
// likely sentence punctuation, the reading common linkifiers apply.
func trimTrailingPunct(line string, end int) int {
	for end > 0 && strings.ContainsRune(".,;:!?", rune(line[end-1])) {
		end--
	}
	return end
}

func sortByColumn(refs []model.Reference) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].StartCol < refs[j].StartCol
	})
}

// scanInlineLinks finds [label](target) occurrences using bracket-depth
// aware matching, so links adjacent to other bracketed prose (footnotes,
// nested brackets in labels) are not mis-split. The callback receives the
// byte span of the target.
func scanInlineLinks(line string, code []span, found func(start, end int)) {
	i := 0
	for i < len(line) {
		if line[i] != '[' || inCode(code, i) {
			i++
			continue
		}

		// Match the label with bracket-depth tracking.
		depth := 1
		j := i + 1
		for j < len(line) && depth > 0 {
			switch line[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			j++
		}
		if depth != 0 {
			return // unbalanced to end of line
		}
		if j >= len(line) || line[j] != '(' {
			i = j
			continue
		}

		// Match the target with paren-depth tracking, non-greedy: the
		// first balanced ")" closes the link.
		depth = 1
		k := j + 1
		for k < len(line) && depth > 0 {
			switch line[k] {
			case '(':
				depth++
			case ')':
				depth--
			}
			k++
		}
		if depth != 0 {
			i = j
			continue
		}

		start, end := targetSpan(line, j+1, k-1)
		if start < end {
			found(start, end)
		}
		i = k
	}
}

// targetSpan narrows the raw parenthesized content to the target itself:
// surrounding whitespace is trimmed, and an optional link title
// (`url "title"`) is dropped. Angle-bracket targets keep their brackets;
// the resolver strips them.
func targetSpan(line string, start, end int) (int, int) {
	for start < end && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	for end > start && (line[end-1] == ' ' || line[end-1] == '\t') {
		end--
	}
	if start >= end {
		return start, start
	}

	if line[start] == '<' {
		if idx := strings.IndexByte(line[start:end], '>'); idx >= 0 {
			return start, start + idx + 1
		}
		return start, end
	}

	// The target ends at the first whitespace; anything after is a title.
	if idx := strings.IndexAny(line[start:end], " \t"); idx >= 0 {
		return start, start + idx
	}
	return start, end
}

// scanHTMLAnchors finds inline HTML <a href="..."> tags. Tags are assumed
// to open and close on one line, which holds for the corpus. The tag is
// validated with the x/net/html tokenizer before the raw href span is
// located, so prose containing "<a " is not mistaken for markup.
func scanHTMLAnchors(line string, code []span, found func(start, end int)) {
	lower := strings.ToLower(line)
	pos := 0
	for {
		idx := strings.Index(lower[pos:], "<a")
		if idx < 0 {
			return
		}
		tagStart := pos + idx
		pos = tagStart + 2

		if tagStart+2 >= len(line) {
			return
		}
		if c := line[tagStart+2]; c != ' ' && c != '\t' {
			continue
		}
		if inCode(code, tagStart) {
			continue
		}

		gt := strings.IndexByte(line[tagStart:], '>')
		if gt < 0 {
			return
		}
		tag := line[tagStart : tagStart+gt+1]
		pos = tagStart + gt + 1

		if !isAnchorWithHref(tag) {
			continue
		}
		if vs, ve := rawHrefSpan(tag); vs >= 0 {
			found(tagStart+vs, tagStart+ve)
		}
	}
}

// isAnchorWithHref reports whether tag tokenizes as an <a> start tag
// carrying an href attribute.
func isAnchorWithHref(tag string) bool {
	z := html.NewTokenizer(strings.NewReader(tag))
	if tt := z.Next(); tt != html.StartTagToken && tt != html.SelfClosingTagToken {
		return false
	}
	tok := z.Token()
	if tok.Data != "a" {
		return false
	}
	for _, attr := range tok.Attr {
		if attr.Key == "href" {
			return true
		}
	}
	return false
}

// rawHrefSpan locates the href attribute value inside the raw tag text and
// returns its byte span, or (-1, -1) if not found. The raw span is needed
// because the tokenizer decodes entities, which would break exact-span
// rewriting.
func rawHrefSpan(tag string) (int, int) {
	lower := strings.ToLower(tag)
	idx := strings.Index(lower, "href")
	if idx < 0 {
		return -1, -1
	}

	i := idx + len("href")
	for i < len(tag) && (tag[i] == ' ' || tag[i] == '\t') {
		i++
	}
	if i >= len(tag) || tag[i] != '=' {
		return -1, -1
	}
	i++
	for i < len(tag) && (tag[i] == ' ' || tag[i] == '\t') {
		i++
	}
	if i >= len(tag) {
		return -1, -1
	}

	if q := tag[i]; q == '"' || q == '\'' {
		end := strings.IndexByte(tag[i+1:], q)
		if end < 0 {
			return -1, -1
		}
		return i + 1, i + 1 + end
	}

	// Unquoted attribute value.
	end := i
	for end < len(tag) && tag[end] != ' ' && tag[end] != '\t' && tag[end] != '>' {
		end++
	}
	return i, end
}

// codeSpans returns the inline code spans of a line, delimited by
// backticks. An unclosed backtick extends to the end of the line.
func codeSpans(line string) []span {
	var spans []span
	i := 0
	for i < len(line) {
		if line[i] != '`' {
			i++
			continue
		}
		end := strings.IndexByte(line[i+1:], '`')
		if end < 0 {
			spans = append(spans, span{i, len(line)})
			break
		}
		spans = append(spans, span{i, i + 1 + end + 1})
		i += end + 2
	}
	return spans
}

func inCode(spans []span, pos int) bool {
	for _, s := range spans {
		if s.contains(pos) {
			return true
		}
	}
	return false
}

// frontMatterEnd returns the line index of the closing "---" of a YAML
// front matter block, or -1 when the document has none.
func frontMatterEnd(lines []string) int {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return -1
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i
		}
	}
	return -1
}
