package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aligned-app/aligned/internal/client/models"
)

// lookup returns the first present, non-empty value among keys. When none of
// the exact keys match it falls back to a case-insensitive scan.
func lookup(raw models.RawRecord, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && !empty(v) {
			return v, true
		}
	}
	for k, v := range raw {
		for _, want := range keys {
			if strings.EqualFold(k, want) && !empty(v) {
				return v, true
			}
		}
	}
	return nil, false
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	}
	return false
}

// text reads a scalar field as a string.
func text(raw models.RawRecord, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	return scalar(v)
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int64, int32, bool:
		return fmt.Sprint(x)
	}
	return ""
}

// flag reads a boolean that may be encoded as bool, string or number.
func flag(raw models.RawRecord, keys ...string) bool {
	v, ok := lookup(raw, keys...)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	case float64:
		return x != 0
	}
	return false
}

// number converts a JSON scalar to an int.
func number(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}
