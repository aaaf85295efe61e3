// Package section implements idempotent insert-or-replace of named
// markdown sections inside note content.
//
// A section starts at a line that is exactly its `## ` header and runs
// until the next `## ` line or the end of the text. Merging the same
// header twice replaces the section body instead of duplicating it, and
// leaves every unrelated byte of the content untouched.
package section

import "strings"

// NoteContentHeader wraps the pre-existing free-form content the first
// time a leading section is merged into a note.
const NoteContentHeader = "## Note Content"

// Position controls where a brand-new section is placed.
type Position int

const (
	// Lead inserts the new section at the top, ahead of the note-content
	// header (AI summary and memory sections).
	Lead Position = iota
	// Tail appends the new section at the end (link and search imports).
	Tail
)

// Merge inserts or replaces the section named by header. header must be a
// top-level `## ` heading line without trailing newline.
func Merge(content, header, body string, pos Position) string {
	if start, _, end, ok := locate(content, header); ok {
		var b strings.Builder
		b.WriteString(content[:start])
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
		if end < len(content) {
			b.WriteString("\n")
			b.WriteString(content[end:])
		}
		return b.String()
	}

	sec := header + "\n" + body + "\n"
	switch pos {
	case Tail:
		if strings.TrimSpace(content) == "" {
			return sec
		}
		return strings.TrimRight(content, "\n") + "\n\n" + sec
	default:
		rest := content
		if _, _, _, ok := locate(content, NoteContentHeader); !ok && strings.TrimSpace(content) != "" {
			rest = NoteContentHeader + "\n\n" + strings.TrimRight(content, "\n") + "\n"
		}
		if strings.TrimSpace(rest) == "" {
			return sec
		}
		return sec + "\n" + rest
	}
}

// Body returns the trimmed body of the section named by header, if present.
func Body(content, header string) (string, bool) {
	_, bodyStart, end, ok := locate(content, header)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(content[bodyStart:end]), true
}

// Has reports whether content contains a section named by header.
func Has(content, header string) bool {
	_, _, _, ok := locate(content, header)
	return ok
}

// locate returns the byte offsets of the section named by header: the
// start of the header line, the start of the body, and the start of the
// next `## ` line (or len(content)).
func locate(content, header string) (start, bodyStart, end int, ok bool) {
	for i := 0; i <= len(content); {
		j := strings.IndexByte(content[i:], '\n')
		lineEnd := len(content)
		next := len(content) + 1
		if j >= 0 {
			lineEnd = i + j
			next = lineEnd + 1
		}
		line := strings.TrimRight(content[i:lineEnd], " \t\r")
		if line == header {
			start = i
			bodyStart = next
			if bodyStart > len(content) {
				bodyStart = len(content)
			}
			end = nextHeading(content, bodyStart)
			return start, bodyStart, end, true
		}
		i = next
	}
	return 0, 0, 0, false
}

// nextHeading returns the offset of the first `## ` line at or after from,
// or len(content) when none exists.
func nextHeading(content string, from int) int {
	for i := from; i <= len(content); {
		if strings.HasPrefix(content[i:], "## ") {
			return i
		}
		j := strings.IndexByte(content[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
	}
	return len(content)
}
