package tools

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// Args are the raw arguments of one call, as decoded from JSON or built from
// CLI flags.
type Args map[string]any

func invalid(format string, a ...any) error {
	return toolerr.New(toolerr.ErrInvalidInput, format, a...)
}

// String returns a required, non-blank string argument, trimmed.
func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", invalid("%s is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid("%s must be a string", name)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("%s cannot be empty", name)
	}
	return s, nil
}

// OptionalString returns a trimmed string argument, or "" when absent or
// blank.
func (a Args) OptionalString(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid("%s must be a string", name)
	}
	return strings.TrimSpace(s), nil
}

// Bool returns a boolean argument or fallback when absent.
func (a Args) Bool(name string, fallback bool) (bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, invalid("%s must be a boolean", name)
	}
	return b, nil
}

// Number returns a numeric argument and whether it was present.
func (a Args) Number(name string) (float64, bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false, invalid("%s must be a number", name)
		}
		f = parsed
	default:
		return 0, false, invalid("%s must be a number", name)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, invalid("%s must be a number", name)
	}
	return f, true, nil
}

// Int returns a whole-number argument or fallback when absent.
func (a Args) Int(name string, fallback int) (int, error) {
	f, ok, err := a.Number(name)
	if err != nil || !ok {
		return fallback, err
	}
	if f != math.Trunc(f) {
		return 0, invalid("%s must be an integer", name)
	}
	if f < math.MinInt || f >= -math.MinInt {
		return 0, invalid("%s is out of range", name)
	}
	return int(f), nil
}

// Enum returns a string argument restricted to accepted, or fallback when
// absent. An empty fallback makes the argument required.
func (a Args) Enum(name string, accepted []string, fallback string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		if fallback != "" {
			return fallback, nil
		}
		return "", invalid("%s is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid("%s must be a string", name)
	}
	for _, acc := range accepted {
		if s == acc {
			return s, nil
		}
	}
	return "", invalid("%s must be one of: %s", name, strings.Join(accepted, ", "))
}
