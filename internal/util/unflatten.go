package util

import "strings"

// Unflatten expands dotted keys into nested maps:
//
//	{"a.b.c": 1, "a.d": 2, "e": 3} -> {"a": {"b": {"c": 1}, "d": 2}, "e": 3}
//
// Nested maps already present in the input are merged with expanded keys.
func Unflatten(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		if m, ok := value.(map[string]any); ok {
			value = Unflatten(m)
		}
		parts := strings.Split(key, ".")
		cur := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[part] = next
			}
			cur = next
		}
		last := parts[len(parts)-1]
		if existing, ok := cur[last].(map[string]any); ok {
			if m, ok := value.(map[string]any); ok {
				merge(existing, m)
				continue
			}
		}
		cur[last] = value
	}
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if dm, ok := dst[k].(map[string]any); ok {
			if sm, ok := v.(map[string]any); ok {
				merge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
}
