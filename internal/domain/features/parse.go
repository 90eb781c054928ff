package features

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseForm reads field values from submitted form data. Blank or absent
// fields are left out so the collector falls back to defaults; keys that are
// not field names are ignored because forms carry other controls too.
func ParseForm(form url.Values) (Values, error) {
	values := make(Values, Count)
	for i, s := range specs {
		raw := strings.TrimSpace(form.Get(s.Name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", s.Name, raw, ErrMalformed)
		}
		values[Field(i)] = v
	}
	return values, nil
}

// ValuesFromNames maps snake_case names to fields. Unknown names fail.
func ValuesFromNames(in map[string]float64) (Values, error) {
	values := make(Values, len(in))
	for name, v := range in {
		f, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownField)
		}
		values[f] = v
	}
	return values, nil
}

// ValuesFromAny accepts loosely typed maps as produced by YAML decoders.
func ValuesFromAny(in map[string]any) (Values, error) {
	numeric := make(map[string]float64, len(in))
	for name, raw := range in {
		switch v := raw.(type) {
		case float64:
			numeric[name] = v
		case float32:
			numeric[name] = float64(v)
		case int:
			numeric[name] = float64(v)
		case int64:
			numeric[name] = float64(v)
		case uint64:
			numeric[name] = float64(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %q: %w", name, v, ErrMalformed)
			}
			numeric[name] = f
		default:
			return nil, fmt.Errorf("%s: unsupported type %T: %w", name, raw, ErrMalformed)
		}
	}
	return ValuesFromNames(numeric)
}

// Values converts a vector back to raw values, e.g. to re-fill a form.
func (v Vector) Values() Values {
	a := v.Array()
	values := make(Values, Count)
	for i, x := range a {
		values[Field(i)] = x
	}
	return values
}
