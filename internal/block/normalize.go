// Package block reads the human-authored parameter block:
//
//	part: Bracket
//	units: mm
//	params:
//	  width: 10
//	  depth: 8 mm
//	  slot: width/2 - 1
//
// Normalize cleans the raw text and Parse turns it into an ordered
// name → raw value mapping. Classification of the values lives in the
// params package.
package block

import (
	"strings"
	"unicode"
)

// TabWidth is the number of spaces a horizontal tab expands to.
const TabWidth = 2

// commentMarker starts a comment that runs to end of line. It has no escape.
const commentMarker = '#'

// Normalize replaces Unicode space separators with ' ', expands tabs,
// drops carriage returns and strips comments. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = normalizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func normalizeLine(line string) string {
	if idx := strings.IndexRune(line, commentMarker); idx >= 0 {
		line = line[:idx]
	}

	var sb strings.Builder
	sb.Grow(len(line))
	for _, r := range line {
		switch {
		case r == '\r':
			// dropped; CRLF documents normalize to LF
		case r == '\t':
			sb.WriteString(strings.Repeat(" ", TabWidth))
		case unicode.Is(unicode.Zs, r):
			sb.WriteByte(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
