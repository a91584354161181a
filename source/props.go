package source

import (
	"strings"

	"github.com/paulmach/orb/geojson"
)

// withDefaults returns a copy of v as a map with every key of defaults
// that v lacks. A v that is not a map is replaced.
func withDefaults(v any, defaults map[string]any) map[string]any {
	m, ok := asMap(v)
	if !ok {
		return cloneMap(defaults)
	}
	out := cloneMap(m)
	for k, dv := range defaults {
		if _, ok := out[k]; !ok {
			out[k] = cloneValue(dv)
		}
	}
	return out
}

// setPath sets a dotted key inside m, creating intermediate maps.
func setPath(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any)
	}
	if key == "" {
		return m
	}
	head, rest, nested := strings.Cut(key, ".")
	if !nested {
		m[head] = value
		return m
	}
	child, _ := asMap(m[head])
	m[head] = setPath(child, rest, value)
	return m
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case geojson.Properties:
		return m, true
	}
	return nil, false
}

func cloneMap[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case geojson.Properties:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
