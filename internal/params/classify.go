package params

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// decimalLiteral is what counts as "a plain number". strconv.ParseFloat
	// alone would also accept NaN, Inf and hex floats.
	decimalLiteral = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

	// numberWithUnit is a run of number/operator characters followed by
	// letters, optionally separated by spaces: "8mm", "8 mm", "35deg".
	numberWithUnit = regexp.MustCompile(`^([0-9.+\-/*() ]+?) *(\p{L}+)$`)
)

// parseNumber reports whether s is a finite decimal literal.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalLiteral.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of range
		return 0, false
	}
	return v, true
}

// Classify decides the kind of one raw value. The first match wins:
//  1. a plain number → Numeric with fallbackUnit, ExplicitUnit false
//  2. number followed by letters → Numeric with those letters as unit
//  3. anything else → Expression holding raw verbatim
//
// Classify never fails.
func Classify(name, raw, fallbackUnit string) Parameter {
	trimmed := strings.TrimSpace(raw)

	if v, ok := parseNumber(trimmed); ok {
		return Numeric{Name: name, Value: v, Unit: fallbackUnit}
	}

	if m := numberWithUnit.FindStringSubmatch(trimmed); m != nil {
		if v, ok := parseNumber(m[1]); ok {
			return Numeric{Name: name, Value: v, Unit: m[2], ExplicitUnit: true}
		}
	}

	return Expression{Name: name, Expression: raw}
}
