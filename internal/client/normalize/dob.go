package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DOB returns a date of birth as a string. A JSON object literal
// ({"year":1990,"month":5,"day":2}) is rebuilt as a zero-padded YYYY-MM-DD
// date; any other string is returned unchanged.
func DOB(v any) string {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if !strings.Contains(s, "{") {
			return s
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return s
		}
		if d, ok := dateFromParts(obj); ok {
			return d
		}
		return s
	case map[string]any:
		d, _ := dateFromParts(x)
		return d
	}
	return ""
}

func dateFromParts(obj map[string]any) (string, bool) {
	y, okY := number(obj["year"])
	m, okM := number(obj["month"])
	d, okD := number(obj["day"])
	if !okY || !okM || !okD {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}
