package cipher

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Params carries optional explicit parameters for a decode or encode call.
// Values typically arrive from JSON, YAML or CLI flags, so numeric lookups
// accept ints, floats with no fractional part, json.Number and strings.
type Params map[string]any

// Int returns the integer parameter name. ok is false when it is absent.
func (p Params) Int(name string) (value int, ok bool, err error) {
	raw, exists := p[name]
	if !exists || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int32:
		return int(v), true, nil
	case int64:
		return int(v), true, nil
	case uint:
		return int(v), true, nil
	case uint64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, true, invalidParam(name, "expected integer, got %v", v)
		}
		return int(v), true, nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, true, invalidParam(name, "expected integer, got %q", v.String())
		}
		return n, true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, invalidParam(name, "expected integer, got %q", v)
		}
		return n, true, nil
	default:
		return 0, true, invalidParam(name, "expected integer, got %T", raw)
	}
}

// String returns the string parameter name. ok is false when it is absent.
func (p Params) String(name string) (value string, ok bool, err error) {
	raw, exists := p[name]
	if !exists || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, true, nil
	case fmt.Stringer:
		return v.String(), true, nil
	default:
		return "", true, invalidParam(name, "expected string, got %T", raw)
	}
}

// ParseParams parses "name=value" pairs as given on a command line.
func ParseParams(pairs []string) (Params, error) {
	params := make(Params, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("%w: expected name=value, got %q", ErrInvalidParam, pair)
		}
		params[name] = strings.TrimSpace(value)
	}
	return params, nil
}
