// Package units converts between the two supported length units and
// rounds values for display. Millimetres are the pivot unit.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Length is a supported length unit.
type Length string

const (
	Millimeter Length = "mm"
	Inch       Length = "in"
)

// MillimetersPerInch is exact by definition.
const MillimetersPerInch = 25.4

// MaxDigits bounds the rounding precision.
const MaxDigits = 10

// ParseLength accepts "mm" or "in" (case-insensitive, surrounding spaces ignored).
func ParseLength(s string) (Length, error) {
	switch Length(strings.ToLower(strings.TrimSpace(s))) {
	case Millimeter:
		return Millimeter, nil
	case Inch:
		return Inch, nil
	}
	return "", fmt.Errorf("unsupported length unit %q (want mm or in)", s)
}

// IsLength reports whether unit is one of the supported length units.
func IsLength(unit string) bool {
	return unit == string(Millimeter) || unit == string(Inch)
}

// ToMM converts v from unit to millimetres. Unknown units pass through.
func ToMM(v float64, unit string) float64 {
	if unit == string(Inch) {
		return v * MillimetersPerInch
	}
	return v
}

// FromMM converts v millimetres to unit. Unknown units pass through.
func FromMM(v float64, unit string) float64 {
	if unit == string(Inch) {
		return v / MillimetersPerInch
	}
	return v
}

// Convert moves v from one unit to another through millimetres.
func Convert(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	return FromMM(ToMM(v, from), to)
}

// ClampDigits limits digits to [0, MaxDigits].
func ClampDigits(digits int) int {
	if digits < 0 {
		return 0
	}
	if digits > MaxDigits {
		return MaxDigits
	}
	return digits
}

// Round rounds v to digits decimal places, half away from zero. Ties are
// judged on the shortest decimal form of v, so Round(1.005, 2) is 1.01.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	digits = ClampDigits(digits)

	// shift the decimal point in text so v*10^digits carries no binary error
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return v
	}
	scaled, err := strconv.ParseFloat(mant+"e"+strconv.Itoa(e+digits), 64)
	if err != nil || math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / math.Pow(10, float64(digits))
}
