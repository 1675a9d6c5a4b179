package block

import (
	"errors"
	"fmt"
	"strings"
)

// Header keys recognised before the params section.
const (
	KeyPart   = "part"
	KeyUnits  = "units"
	KeyParams = "params"
)

// ErrMissingPart is returned (wrapped) when a block never names its part.
var ErrMissingPart = errors.New("block has no part")

// MissingPartError reports a block that lacks a non-empty `part:` line.
type MissingPartError struct {
	Lines int // lines scanned
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("missing 'part:' after %d line(s)", e.Lines)
}

func (e *MissingPartError) Unwrap() error { return ErrMissingPart }

// Parsed is the transient result of parsing one block.
type Parsed struct {
	Part   string
	Units  string
	Params *Params
}

type parseMode int

const (
	modeHeader parseMode = iota
	modeBody
)

// Parse reads a block top to bottom. Before a `params:` line only the
// part, units and params keys are honoured; after it every line with a
// colon is a parameter. The switch to body mode is one-way.
func Parse(text string) (*Parsed, error) {
	lines := strings.Split(Normalize(text), "\n")

	parsed := &Parsed{Params: NewParams()}
	mode := modeHeader

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}

		if mode == modeBody {
			if key != "" {
				parsed.Params.Set(key, value)
			}
			continue
		}

		switch key {
		case KeyPart:
			if value != "" {
				parsed.Part = value
			}
		case KeyUnits:
			parsed.Units = value
		case KeyParams:
			mode = modeBody
		}
	}

	if parsed.Part == "" {
		return nil, &MissingPartError{Lines: len(lines)}
	}
	return parsed, nil
}

// splitLine cuts at the first colon and cleans both halves.
func splitLine(line string) (key, value string, ok bool) {
	k, v, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return clean(k), clean(v), true
}

func clean(s string) string {
	return Unquote(strings.TrimSpace(s))
}

// Unquote strips one layer of matching single or double quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
