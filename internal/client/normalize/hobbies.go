package normalize

import (
	"encoding/json"
	"strings"
)

// Hobbies turns a hobbies value into a list of trimmed strings.
//
// Arrays are kept in order. Strings are parsed as a JSON array first and split
// on commas otherwise. Anything absent or uninterpretable yields an empty,
// non-nil slice.
func Hobbies(v any) []string {
	switch x := v.(type) {
	case []string:
		return clean(x)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, scalar(item))
		}
		return clean(items)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return []string{}
		}
		var parsed []any
		if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &parsed) == nil {
			return Hobbies(parsed)
		}
		return clean(strings.Split(s, ","))
	}
	return []string{}
}

func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
