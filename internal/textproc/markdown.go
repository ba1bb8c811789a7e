// Package textproc prepares input text for synthesis.
package textproc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Options controls markdown flattening.
type Options struct {
	// IncludeCode keeps the contents of code blocks.
	IncludeCode bool
}

var md = goldmark.New()

// FromMarkdown flattens markdown to plain speakable text. Each block becomes
// one paragraph. Formatting marks, link targets and raw HTML are dropped.
// Headings get a closing period so the voice pauses after them.
func FromMarkdown(source string, opts Options) (string, error) {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.Heading:
			if s := inline(n, src); s != "" {
				blocks = append(blocks, terminate(s))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if s := inline(n, src); s != "" {
				blocks = append(blocks, s)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if opts.IncludeCode {
				if s := codeLines(n, src); s != "" {
					blocks = append(blocks, s)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown AST: %w", err)
	}

	return strings.Join(blocks, "\n\n"), nil
}

func inline(n ast.Node, src []byte) string {
	var b strings.Builder
	writeInline(&b, n, src)
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeInline(b *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(src))
		case *ast.RawHTML:
		default:
			writeInline(b, c, src)
		}
	}
}

func codeLines(n ast.Node, src []byte) string {
	var lines []string
	segs := n.Lines()
	for i := range segs.Len() {
		seg := segs.At(i)
		if line := strings.TrimSpace(string(seg.Value(src))); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

func terminate(s string) string {
	r := []rune(s)
	if unicode.IsPunct(r[len(r)-1]) {
		return s
	}
	return s + "."
}
