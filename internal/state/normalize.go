package state

import (
	"strconv"
	"strings"
)

// Bool normalizes the loosely typed truthy values that arrive from plan
// documents and CLI arguments. Device tooling reports flags as "1"/"0";
// YAML and JSON deliver bools, numbers or quoted strings. The second return
// is false when the value has no boolean reading.
func Bool(v any) (bool, bool) {
	switch value := v.(type) {
	case bool:
		return value, true
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
		return false, false
	case int:
		return value != 0, true
	case int64:
		return value != 0, true
	case float64:
		return value != 0, true
	default:
		return false, false
	}
}

// FormatBool renders a normalized boolean for change maps.
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}
