// Package fusion mirrors the CAD add-in side of the exchange: what the
// importer does with a canonical record, and how the add-in's own export
// file is read back into a record.
package fusion

import (
	"encoding/json"
	"fmt"
	"strings"

	"fusionparams/internal/params"
)

// FallbackDesign is the design name the add-in uses when the active
// document has no name.
const FallbackDesign = "ActiveDesign"

// Assignment is one user-parameter upsert as the CAD importer performs it.
type Assignment struct {
	Name       string
	Expression string
	Unit       string
	Comment    string
}

// ValueString joins a value and unit the way the importer builds its
// expression strings: "<value> <unit>", or just the value without a unit.
func ValueString(value float64, unit string) string {
	if unit == "" {
		return params.FormatNumber(value)
	}
	return params.FormatNumber(value) + " " + unit
}

// Plan lists the assignments the importer would make for rec, in order.
// Expressions are passed through with no unit; numeric values carry their
// unit (or the record default) both in the expression and as the unit.
func Plan(rec params.Record) []Assignment {
	out := make([]Assignment, 0, len(rec.Parameters))
	for _, p := range rec.Parameters {
		switch p := p.(type) {
		case params.Expression:
			out = append(out, Assignment{Name: p.Name, Expression: p.Expression, Comment: p.Comment})
		case params.Numeric:
			unit := p.Unit
			if unit == "" {
				unit = rec.DefaultUnit
			}
			out = append(out, Assignment{
				Name:       p.Name,
				Expression: ValueString(p.Value, unit),
				Unit:       unit,
				Comment:    p.Comment,
			})
		}
	}
	return out
}

// exportFile is the add-in's export shape: every parameter is an expression.
type exportFile struct {
	Design      string `json:"design"`
	DefaultUnit string `json:"defaultUnit"`
	Parameters  []struct {
		Name       string `json:"name"`
		Expression string `json:"expression"`
		Comment    string `json:"comment"`
	} `json:"parameters"`
}

// FromExport reads the add-in's export file. Each expression is classified
// so literal values such as "12 mm" come back as numeric parameters.
// Parameters without a name or expression are skipped.
func FromExport(data []byte) (params.Record, error) {
	var in exportFile
	if err := json.Unmarshal(data, &in); err != nil {
		return params.Record{}, fmt.Errorf("failed to parse CAD export: %w", err)
	}

	rec := params.Record{
		Design:      in.Design,
		DefaultUnit: in.DefaultUnit,
		Parameters:  make([]params.Parameter, 0, len(in.Parameters)),
	}
	if rec.Design == "" {
		rec.Design = FallbackDesign
	}

	for _, p := range in.Parameters {
		raw := strings.TrimSpace(p.Expression)
		if p.Name == "" || raw == "" {
			continue
		}
		rec.Parameters = append(rec.Parameters, params.WithComment(params.Classify(p.Name, raw, rec.DefaultUnit), p.Comment))
	}
	return rec, nil
}
