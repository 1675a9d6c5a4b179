package params

import "fusionparams/internal/block"

// ToRecord canonicalizes a parsed block. The default unit is the block's
// own units: value, else fallbackUnit. Entries with an empty raw value are
// dropped; the rest keep their source order.
func ToRecord(parsed *block.Parsed, fallbackUnit string) Record {
	rec := Record{
		Design:      parsed.Part,
		DefaultUnit: parsed.Units,
	}
	if rec.DefaultUnit == "" {
		rec.DefaultUnit = fallbackUnit
	}

	rec.Parameters = make([]Parameter, 0, parsed.Params.Len())
	parsed.Params.Each(func(name, raw string) {
		if raw == "" {
			return
		}
		rec.Parameters = append(rec.Parameters, Classify(name, raw, rec.DefaultUnit))
	})
	return rec
}

// ParseRecord is block.Parse followed by ToRecord.
func ParseRecord(text, fallbackUnit string) (Record, error) {
	parsed, err := block.Parse(text)
	if err != nil {
		return Record{}, err
	}
	return ToRecord(parsed, fallbackUnit), nil
}
