package modules

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/driftworks/driftd/internal/state"
)

// Args is the loosely typed argument set of one invocation. HTTP callers
// deliver JSON objects, plans YAML mappings and the CLI key=value pairs;
// the getters absorb the type differences between those sources.
type Args map[string]any

// ParseKV builds Args from the CLI's key=value pairs. Values are decoded as
// YAML so numbers, booleans and flow-style lists keep their type.
func ParseKV(pairs []string) (Args, error) {
	args := make(Args, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, &InvocationError{Field: pair, Reason: "arguments take the form key=value"}
		}
		if raw == "" {
			args[key] = ""
			continue
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		args[key] = value
	}
	return args, nil
}

// Has reports whether the argument was given at all.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Any returns the raw argument value.
func (a Args) Any(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// String returns a required string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", &InvocationError{Field: key, Reason: "must be set"}
	}
	s, ok := stringify(v)
	if !ok {
		return "", &InvocationError{Field: key, Reason: "must be a string"}
	}
	if s == "" {
		return "", &InvocationError{Field: key, Reason: "must be set"}
	}
	return s, nil
}

// StringOr returns an optional string argument, or fallback when missing.
func (a Args) StringOr(key, fallback string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := stringify(v)
	if !ok {
		return "", &InvocationError{Field: key, Reason: "must be a string"}
	}
	return s, nil
}

// Bool returns an optional boolean argument with the usual loose spellings
// ("1", "yes", "on", ...) normalized.
func (a Args) Bool(key string, fallback bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return fallback, nil
	}
	b, ok := state.Bool(v)
	if !ok {
		return false, &InvocationError{Field: key, Reason: "must be a boolean"}
	}
	return b, nil
}

// Int returns an optional integer argument.
func (a Args) Int(key string, fallback int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch value := v.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case uint64:
		return int(value), nil
	case float64:
		if value != math.Trunc(value) {
			return 0, &InvocationError{Field: key, Reason: "must be an integer"}
		}
		return int(value), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, &InvocationError{Field: key, Reason: "must be an integer"}
		}
		return n, nil
	}
	return 0, &InvocationError{Field: key, Reason: "must be an integer"}
}

// Uint returns an optional non-negative integer argument.
func (a Args) Uint(key string, fallback uint64) (uint64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch value := v.(type) {
	case int:
		if value < 0 {
			return 0, &InvocationError{Field: key, Reason: "must not be negative"}
		}
		return uint64(value), nil
	case int64:
		if value < 0 {
			return 0, &InvocationError{Field: key, Reason: "must not be negative"}
		}
		return uint64(value), nil
	case uint64:
		return value, nil
	case float64:
		if value != math.Trunc(value) || value < 0 {
			return 0, &InvocationError{Field: key, Reason: "must be a non-negative integer"}
		}
		return uint64(value), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, &InvocationError{Field: key, Reason: "must be a non-negative integer"}
		}
		return n, nil
	}
	return 0, &InvocationError{Field: key, Reason: "must be a non-negative integer"}
}

// Strings returns an optional list argument. A single string value becomes
// a one-element list.
func (a Args) Strings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch value := v.(type) {
	case []string:
		return value, nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := stringify(item)
			if !ok {
				return nil, &InvocationError{Field: key, Reason: "must be a list of strings"}
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{value}, nil
	}
	return nil, &InvocationError{Field: key, Reason: "must be a list of strings"}
}

// StringMap returns an optional mapping argument with scalar values
// rendered to strings.
func (a Args) StringMap(key string) (map[string]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch value := v.(type) {
	case map[string]string:
		return value, nil
	case map[string]any:
		out := make(map[string]string, len(value))
		for k, item := range value {
			s, ok := stringify(item)
			if !ok {
				return nil, &InvocationError{Field: key, Reason: "must be a map of scalar settings"}
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, &InvocationError{Field: key, Reason: "must be a map of scalar settings"}
}

// Except returns a copy of the arguments without the given keys.
func (a Args) Except(keys ...string) map[string]any {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	out := make(map[string]any, len(a))
	for k, v := range a {
		if !skip[k] {
			out[k] = v
		}
	}
	return out
}

func stringify(v any) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case bool:
		return strconv.FormatBool(value), true
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case uint64:
		return strconv.FormatUint(value, 10), true
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10), true
		}
		return strconv.FormatFloat(value, 'f', -1, 64), true
	default:
		return "", false
	}
}
