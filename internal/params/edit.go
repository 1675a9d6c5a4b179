package params

import (
	"sort"
	"strings"
)

// Row is one editable table line: a name and the raw text in the value cell.
type Row struct {
	Name string
	Raw  string
}

// Rows lists rec's parameters in source order as editable rows.
func Rows(rec Record) []Row {
	rows := make([]Row, len(rec.Parameters))
	for i, p := range rec.Parameters {
		raw := RawValue(p)
		if e, ok := p.(Expression); ok {
			raw = e.Expression
		}
		rows[i] = Row{Name: p.ParamName(), Raw: raw}
	}
	return rows
}

// ApplyEdits builds a new record from base's design and default unit and
// the given rows, reclassifying every value. Rows with an empty name or
// value are dropped. Duplicate names are kept as separate rows. Comments
// survive for rows whose name still appears at the same position.
func ApplyEdits(base Record, rows []Row) Record {
	out := Record{
		Design:      base.Design,
		DefaultUnit: base.DefaultUnit,
		Parameters:  make([]Parameter, 0, len(rows)),
	}
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		raw := strings.TrimSpace(row.Raw)
		if name == "" || raw == "" {
			continue
		}
		p := Classify(name, raw, base.DefaultUnit)
		if i < len(base.Parameters) && base.Parameters[i].ParamName() == name {
			p = WithComment(p, base.Parameters[i].ParamComment())
		}
		out.Parameters = append(out.Parameters, p)
	}
	return out
}

// WithComment returns p with its comment replaced.
func WithComment(p Parameter, comment string) Parameter {
	switch p := p.(type) {
	case Numeric:
		p.Comment = comment
		return p
	case Expression:
		p.Comment = comment
		return p
	}
	return p
}

// Indexed pairs a parameter with its position in the source order.
type Indexed struct {
	Index int
	Parameter
}

// SortedView orders rec's parameters by name for display. Each entry keeps
// its source index so edits can be written back in source order.
func SortedView(rec Record) []Indexed {
	view := make([]Indexed, len(rec.Parameters))
	for i, p := range rec.Parameters {
		view[i] = Indexed{Index: i, Parameter: p}
	}
	sort.SliceStable(view, func(a, b int) bool {
		return strings.ToLower(view[a].ParamName()) < strings.ToLower(view[b].ParamName())
	})
	return view
}

// SetRaw returns a copy of rows with the row at index replaced. It is how a
// display-ordered edit lands back in source order.
func SetRaw(rows []Row, index int, name, raw string) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if index >= 0 && index < len(out) {
		out[index] = Row{Name: name, Raw: raw}
	}
	return out
}

// Upsert replaces the value of the last row named like each update, or
// appends the update when no row has that name.
func Upsert(rows []Row, updates []Row) []Row {
	out := make([]Row, len(rows), len(rows)+len(updates))
	copy(out, rows)
	for _, u := range updates {
		replaced := false
		for i := len(out) - 1; i >= 0; i-- {
			if out[i].Name == u.Name {
				out[i].Raw = u.Raw
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, u)
		}
	}
	return out
}
