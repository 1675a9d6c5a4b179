package block

// Params is an insertion-ordered name → raw value mapping. Setting an
// existing name replaces its value but keeps its original position.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams returns an empty mapping.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set stores raw under name (last write wins).
func (p *Params) Set(name, raw string) {
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = raw
}

// Get returns the raw value for name.
func (p *Params) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of distinct names.
func (p *Params) Len() int {
	return len(p.keys)
}

// Keys returns the names in first-insertion order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Each calls fn for every entry in order.
func (p *Params) Each(fn func(name, raw string)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}
