// Package parser derives display fields from markdown note content.
package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PreviewLength is the maximum rune length of a note preview.
const PreviewLength = 120

var md = goldmark.New()

// PlainText strips markdown structure from content by walking the goldmark
// AST and collecting text nodes. Block boundaries collapse to single spaces.
func PlainText(content string) string {
	src := []byte(content)
	root := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			b.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

// Preview returns the truncated plain-text summary cached on a note.
func Preview(content string) string {
	plain := PlainText(content)
	runes := []rune(plain)
	if len(runes) <= PreviewLength {
		return plain
	}
	return strings.TrimSpace(string(runes[:PreviewLength])) + "..."
}

// Title returns the text of the first level-1 heading, or fallback when
// the content has none.
func Title(content, fallback string) string {
	src := []byte(content)
	root := md.Parser().Parse(text.NewReader(src))

	title := ""
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		title = strings.TrimSpace(b.String())
		return ast.WalkStop, nil
	})

	if title == "" {
		return fallback
	}
	return title
}
