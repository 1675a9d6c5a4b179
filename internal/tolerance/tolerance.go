// Package tolerance derives the "with tolerance" display value of a
// numeric parameter. It never changes the canonical record.
package tolerance

import (
	"fmt"

	"fusionparams/internal/params"
	"fusionparams/internal/units"
)

// DisplayMode selects how a Result is rendered.
type DisplayMode string

const (
	// ModeEquation renders "base unit ± tol unit = result unit".
	ModeEquation DisplayMode = "equation"
	// ModeResult renders only "result unit".
	ModeResult DisplayMode = "result"
)

// ParseMode accepts "equation" or "result".
func ParseMode(s string) (DisplayMode, error) {
	switch DisplayMode(s) {
	case ModeEquation, ModeResult:
		return DisplayMode(s), nil
	}
	return "", fmt.Errorf("unknown display mode %q (want equation or result)", s)
}

// Settings is the record-scope tolerance shared by every enabled row.
type Settings struct {
	Value  float64
	Unit   units.Length
	Digits int
	Mode   DisplayMode
}

// Input is one evaluation request.
type Input struct {
	Base     float64
	BaseUnit string
	TolValue float64
	TolUnit  units.Length
	Enabled  bool
	Digits   int
}

// Result is a computed display value. Tolerance is already converted to Unit.
type Result struct {
	Base      float64
	Tolerance float64
	Value     float64
	Unit      string
	Digits    int
}

// Evaluate computes round(base + convert(tol, tolUnit, baseUnit), digits).
// The second return is false (not applicable) when the row is disabled or
// the base unit is not a supported length unit.
func Evaluate(in Input) (Result, bool) {
	if !in.Enabled || !units.IsLength(in.BaseUnit) {
		return Result{}, false
	}
	digits := units.ClampDigits(in.Digits)
	tol := units.Convert(in.TolValue, string(in.TolUnit), in.BaseUnit)
	return Result{
		Base:      in.Base,
		Tolerance: units.Round(tol, digits),
		Value:     units.Round(in.Base+tol, digits),
		Unit:      in.BaseUnit,
		Digits:    digits,
	}, true
}

// ForParameter evaluates p with the shared settings. Expressions are never
// applicable since they have no numeric base.
func ForParameter(p params.Parameter, s Settings, enabled bool) (Result, bool) {
	n, ok := p.(params.Numeric)
	if !ok {
		return Result{}, false
	}
	return Evaluate(Input{
		Base:     n.Value,
		BaseUnit: n.Unit,
		TolValue: s.Value,
		TolUnit:  s.Unit,
		Enabled:  enabled,
		Digits:   s.Digits,
	})
}

// Format renders r in the given mode.
func (r Result) Format(mode DisplayMode) string {
	if mode == ModeEquation {
		return fmt.Sprintf("%s %s ± %s %s = %s %s",
			params.FormatNumber(r.Base), r.Unit,
			params.FormatNumber(r.Tolerance), r.Unit,
			params.FormatNumber(r.Value), r.Unit)
	}
	return params.FormatNumber(r.Value) + " " + r.Unit
}

// Row is one line of a tolerance table.
type Row struct {
	Name       string
	Display    string
	Applicable bool
}

// Table evaluates every parameter of rec. enabled is indexed by row
// position; rows past its end are switched off.
func Table(rec params.Record, s Settings, enabled []bool) []Row {
	rows := make([]Row, 0, len(rec.Parameters))
	for i, p := range rec.Parameters {
		row := Row{Name: p.ParamName()}
		on := i < len(enabled) && enabled[i]
		if res, ok := ForParameter(p, s, on); ok {
			row.Applicable = true
			row.Display = res.Format(s.Mode)
		}
		rows = append(rows, row)
	}
	return rows
}
