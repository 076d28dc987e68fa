package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aligned-app/aligned/internal/client/models"
)

func decodeObject(data []byte) (models.RawRecord, error) {
	var m models.RawRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if m == nil {
		m = models.RawRecord{}
	}
	return m, nil
}

// decodeList accepts a bare JSON array or an object holding the array under
// key (any case).
func decodeList(data []byte, key string) ([]models.RawRecord, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	switch x := v.(type) {
	case []any:
		return records(x), nil
	case map[string]any:
		return records(field(x, key)), nil
	}
	return []models.RawRecord{}, nil
}

// field returns the value stored under any case variant of key.
func field(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func records(v any) []models.RawRecord {
	list, _ := v.([]any)
	out := make([]models.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(field(m, k)); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(data []byte) string {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		if msg := str(m, "message", "error", "detail"); msg != "" {
			return msg
		}
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
