// Package document finds parameter blocks inside Markdown documents and
// rewrites their line ranges.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultLanguage is the fence info string that marks a parameter block.
const DefaultLanguage = "fusion-params"

// Block is one fenced parameter block. StartLine and EndLine are
// zero-based and half-open over the block body (the lines between the
// fences), so an empty block has StartLine == EndLine. Prefix is the
// container markup ("> " or list indentation) in front of every body line;
// Text never includes it.
type Block struct {
	Index     int
	StartLine int
	EndLine   int
	Prefix    string
	Text      string
}

// Indent puts b's container prefix in front of every line of text so the
// result can replace the block body in place.
func (b Block) Indent(text string) string {
	if b.Prefix == "" || text == "" {
		return text
	}
	trailing := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	blank := strings.TrimRight(b.Prefix, " ")
	for i, l := range lines {
		if l == "" {
			lines[i] = blank
			continue
		}
		lines[i] = b.Prefix + l
	}
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out
}

// Locator finds fenced blocks tagged with a given language.
type Locator struct {
	language string
	md       goldmark.Markdown
}

// NewLocator returns a Locator for language (DefaultLanguage when empty).
func NewLocator(language string) *Locator {
	if language == "" {
		language = DefaultLanguage
	}
	return &Locator{language: language, md: goldmark.New()}
}

// Language returns the fence info string this locator matches.
func (l *Locator) Language() string {
	return l.language
}

// Find returns every matching block of src in document order.
func (l *Locator) Find(src []byte) []Block {
	root := l.md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		if string(fcb.Language(src)) != l.language {
			return ast.WalkContinue, nil
		}

		start := lineOf(src, fcb.Info.Segment.Start) + 1
		lines := fcb.Lines()
		prefix, found := "", false
		var body strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
			if !found && len(bytes.TrimSpace(seg.Value(src))) > 0 {
				prefix, found = string(src[lineStart(src, seg.Start):seg.Start]), true
			}
		}
		if !found {
			prefix = fencePrefix(src, fcb.Info.Segment.Start)
		}
		blocks = append(blocks, Block{
			Index:     len(blocks),
			StartLine: start,
			EndLine:   start + lines.Len(),
			Prefix:    prefix,
			Text:      body.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

func lineOf(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n"))
}

func lineStart(src []byte, offset int) int {
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}

// fencePrefix derives the continuation prefix from the opening fence line
// that holds the info string at offset. List markers become spaces and
// blockquote markers are kept.
func fencePrefix(src []byte, offset int) string {
	from := lineStart(src, offset)
	i := offset
	for i > from && src[i-1] == ' ' {
		i--
	}
	for i > from && (src[i-1] == '`' || src[i-1] == '~') {
		i--
	}
	prefix := append([]byte(nil), src[from:i]...)
	for j, c := range prefix {
		if c != '>' && c != ' ' && c != '\t' {
			prefix[j] = ' '
		}
	}
	return string(prefix)
}

// ReplaceLines replaces lines [start, end) of doc with replacement. The
// replacement's trailing newline is optional. Line endings of the
// surrounding document are preserved.
func ReplaceLines(doc string, start, end int, replacement string) (string, error) {
	lines := strings.SplitAfter(doc, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if start < 0 || end < start || end > len(lines) {
		return "", fmt.Errorf("line range [%d,%d) outside document of %d lines", start, end, len(lines))
	}

	replacement = strings.TrimSuffix(replacement, "\n")
	var sb strings.Builder
	for _, l := range lines[:start] {
		sb.WriteString(l)
	}
	if replacement != "" {
		sb.WriteString(replacement)
		sb.WriteByte('\n')
	}
	for _, l := range lines[end:] {
		sb.WriteString(l)
	}
	return sb.String(), nil
}
