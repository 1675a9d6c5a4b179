package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire shapes of the persisted record. The explicit-unit flag is session
// bookkeeping and never reaches the file.
type jsonRecord struct {
	Design      string            `json:"design"`
	DefaultUnit string            `json:"defaultUnit"`
	Parameters  []json.RawMessage `json:"parameters"`
}

type jsonNumeric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Comment string  `json:"comment,omitempty"`
}

type jsonExpression struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Comment    string `json:"comment,omitempty"`
}

// probe is used to tell the two variants apart when decoding.
type probe struct {
	Name       string   `json:"name"`
	Expression *string  `json:"expression"`
	Value      *float64 `json:"value"`
	Unit       *string  `json:"unit"`
	Comment    string   `json:"comment"`
}

// ErrMalformedRecord wraps every decoding failure.
var ErrMalformedRecord = errors.New("malformed parameter record")

// MarshalJSON writes the canonical file shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := jsonRecord{
		Design:      r.Design,
		DefaultUnit: r.DefaultUnit,
		Parameters:  make([]json.RawMessage, 0, len(r.Parameters)),
	}
	for _, p := range r.Parameters {
		var (
			b   []byte
			err error
		)
		switch p := p.(type) {
		case Numeric:
			b, err = json.Marshal(jsonNumeric{Name: p.Name, Value: p.Value, Unit: p.Unit, Comment: p.Comment})
		case Expression:
			b, err = json.Marshal(jsonExpression{Name: p.Name, Expression: p.Expression, Comment: p.Comment})
		default:
			err = fmt.Errorf("unknown parameter type %T", p)
		}
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.ParamName(), err)
		}
		out.Parameters = append(out.Parameters, b)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the canonical file shape. A parameter carrying an
// "expression" key is an Expression; anything else is Numeric, inheriting
// defaultUnit when it has no unit of its own. An empty "unit" counts as none.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in jsonRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	rec := Record{
		Design:      in.Design,
		DefaultUnit: in.DefaultUnit,
		Parameters:  make([]Parameter, 0, len(in.Parameters)),
	}
	for i, raw := range in.Parameters {
		var pr probe
		if err := json.Unmarshal(raw, &pr); err != nil {
			return fmt.Errorf("%w: parameter %d: %v", ErrMalformedRecord, i, err)
		}
		if pr.Name == "" {
			return fmt.Errorf("%w: parameter %d has no name", ErrMalformedRecord, i)
		}

		if pr.Expression != nil {
			rec.Parameters = append(rec.Parameters, Expression{Name: pr.Name, Expression: *pr.Expression, Comment: pr.Comment})
			continue
		}
		if pr.Value == nil {
			return fmt.Errorf("%w: parameter %q has neither value nor expression", ErrMalformedRecord, pr.Name)
		}

		n := Numeric{Name: pr.Name, Value: *pr.Value, Unit: in.DefaultUnit, Comment: pr.Comment}
		if pr.Unit != nil && *pr.Unit != "" {
			n.Unit = *pr.Unit
			n.ExplicitUnit = n.Unit != in.DefaultUnit
		}
		rec.Parameters = append(rec.Parameters, n)
	}

	*r = rec
	return nil
}

// Encode renders the file content for rec: two-space indent, trailing newline.
func Encode(rec Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses file content produced by Encode (or by hand).
func Decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		if errors.Is(err, ErrMalformedRecord) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return rec, nil
}
