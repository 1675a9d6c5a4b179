package params

import (
	"strconv"
	"strings"

	"fusionparams/internal/block"
)

// Indent prefixes every parameter line of a rendered block.
const Indent = "  "

// FormatNumber prints v in the shortest decimal form that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RawValue is the text a parameter is written as on its block line.
func RawValue(p Parameter) string {
	switch p := p.(type) {
	case Numeric:
		if p.ExplicitUnit && p.Unit != "" {
			return FormatNumber(p.Value) + " " + p.Unit
		}
		return FormatNumber(p.Value)
	case Expression:
		return quoteField(p.Expression)
	}
	return ""
}

// quoteField returns s in the form the block parser reads back as s. The
// parser trims a field and then strips one layer of matching quotes, so a
// value with surrounding whitespace or its own matching quotes gets an
// extra layer.
func quoteField(s string) string {
	if s == strings.TrimSpace(s) && block.Unquote(s) == s {
		return s
	}
	if strings.HasPrefix(s, `"`) || strings.HasSuffix(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// ToBlock renders rec as block text that Parse + ToRecord read back to an
// equivalent record. Comments and original spacing are not preserved.
func ToBlock(rec Record) string {
	var sb strings.Builder
	sb.WriteString("part: ")
	sb.WriteString(quoteField(rec.Design))
	sb.WriteByte('\n')
	if rec.DefaultUnit != "" {
		sb.WriteString("units: ")
		sb.WriteString(quoteField(rec.DefaultUnit))
		sb.WriteByte('\n')
	}
	sb.WriteString("params:\n")
	for _, p := range rec.Parameters {
		sb.WriteString(Indent)
		sb.WriteString(quoteField(p.ParamName()))
		sb.WriteString(": ")
		sb.WriteString(RawValue(p))
		sb.WriteByte('\n')
	}
	return sb.String()
}
