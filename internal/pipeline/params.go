package pipeline

import (
	"fmt"
	"time"
)

// Params is the parameter bag of one configured step, decoded from the
// stage YAML. Getters come in optional (value, default) and required
// (value, error) variants; the required variants produce the fail-fast
// validation errors the runner aborts on.
type Params map[string]interface{}

// normalizeValue converts the map[interface{}]interface{} trees that
// yaml.v2 decodes into string-keyed maps so params nest predictably.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = normalizeValue(item)
		}
		return m
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	default:
		return v
	}
}

// NormalizeParams prepares a decoded YAML mapping for use as Params.
func NormalizeParams(raw map[interface{}]interface{}) Params {
	p := make(Params, len(raw))
	for k, v := range raw {
		p[fmt.Sprintf("%v", k)] = normalizeValue(v)
	}
	return p
}

// Has reports whether the parameter is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	return fmt.Sprintf("%v", v)
}

// RequireString returns the parameter as a string, or an error when
// absent or empty.
func (p Params) RequireString(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", NewMissingParamError("", key)
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return "", NewMissingParamError("", key)
	}
	return s, nil
}

// Int returns the parameter as an int, or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected integer, got %T", key, v)
	}
}

// Float returns the parameter as a float64, or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected number, got %T", key, v)
	}
}

// RequireFloat returns the parameter as a float64, or an error when
// absent.
func (p Params) RequireFloat(key string) (float64, error) {
	if !p.Has(key) {
		return 0, NewMissingParamError("", key)
	}
	return p.Float(key, 0)
}

// Bool returns the parameter as a bool, or def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected boolean, got %T", key, v)
	}
	return b, nil
}

// Duration returns the parameter parsed with time.ParseDuration, or def
// when absent.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(fmt.Sprintf("%v", v))
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	return d, nil
}

// RequireDuration returns the parameter parsed with time.ParseDuration,
// or an error when absent.
func (p Params) RequireDuration(key string) (time.Duration, error) {
	if !p.Has(key) {
		return 0, NewMissingParamError("", key)
	}
	return p.Duration(key, 0)
}

// StringSlice returns the parameter as a list of strings. Absent
// parameters return nil.
func (p Params) StringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter %q: expected list, got %T", key, v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%v", item)
	}
	return out, nil
}

// RequireStringSlice returns the parameter as a non-empty list of
// strings, or an error when absent or empty.
func (p Params) RequireStringSlice(key string) ([]string, error) {
	if !p.Has(key) {
		return nil, NewMissingParamError("", key)
	}
	items, err := p.StringSlice(key)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, NewMissingParamError("", key)
	}
	return items, nil
}

// StringMap returns the parameter as a string-to-string mapping. Absent
// parameters return nil.
func (p Params) StringMap(key string) (map[string]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter %q: expected mapping, got %T", key, v)
	}
	out := make(map[string]string, len(raw))
	for k, item := range raw {
		out[k] = fmt.Sprintf("%v", item)
	}
	return out, nil
}

// RequireStringMap returns the parameter as a non-empty string mapping,
// or an error when absent or empty.
func (p Params) RequireStringMap(key string) (map[string]string, error) {
	if !p.Has(key) {
		return nil, NewMissingParamError("", key)
	}
	m, err := p.StringMap(key)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, NewMissingParamError("", key)
	}
	return m, nil
}

// RequireTime returns the parameter parsed as a date (2006-01-02) or a
// full timestamp, or an error when absent.
func (p Params) RequireTime(key string) (time.Time, error) {
	s, err := p.RequireString(key)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parameter %q: %w", key, err)
	}
	return t, nil
}
