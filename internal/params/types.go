// Package params holds the canonical parameter model: the Numeric /
// Expression sum type, classification of raw block values, the
// canonical Record and its inverse rendering back to block text.
package params

// Parameter is one named entry of a Record. The only implementations
// are Numeric and Expression.
type Parameter interface {
	ParamName() string
	ParamComment() string
	isParameter()
}

// Numeric is a number with a length (or other) unit. ExplicitUnit records
// whether the unit was written in the source text or inherited.
type Numeric struct {
	Name         string
	Value        float64
	Unit         string
	ExplicitUnit bool
	Comment      string
}

// Expression is opaque algebraic text. It is never evaluated here.
type Expression struct {
	Name       string
	Expression string
	Comment    string
}

func (n Numeric) ParamName() string       { return n.Name }
func (n Numeric) ParamComment() string    { return n.Comment }
func (Numeric) isParameter()              {}
func (e Expression) ParamName() string    { return e.Name }
func (e Expression) ParamComment() string { return e.Comment }
func (Expression) isParameter()           {}

// Record is the canonical form of one block. Treat it as immutable:
// edits build a new Record.
type Record struct {
	Design      string
	DefaultUnit string
	Parameters  []Parameter
}

// Clone returns a copy whose parameter slice can be modified freely.
func (r Record) Clone() Record {
	out := r
	out.Parameters = make([]Parameter, len(r.Parameters))
	copy(out.Parameters, r.Parameters)
	return out
}

// Lookup returns the last parameter with the given name.
func (r Record) Lookup(name string) (Parameter, bool) {
	for i := len(r.Parameters) - 1; i >= 0; i-- {
		if r.Parameters[i].ParamName() == name {
			return r.Parameters[i], true
		}
	}
	return nil, false
}

// Counts returns how many numeric and expression parameters r holds.
func (r Record) Counts() (numeric, expression int) {
	for _, p := range r.Parameters {
		switch p.(type) {
		case Numeric:
			numeric++
		case Expression:
			expression++
		}
	}
	return numeric, expression
}
