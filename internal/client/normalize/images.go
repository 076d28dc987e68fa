package normalize

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/aligned-app/aligned/internal/client/models"
)

// ImageFields are the record keys searched for images, in order.
var ImageFields = []string{"IMAGES", "images", "profileImages", "PROFILEIMAGES"}

const (
	dataURLPrefix = "data:image/jpeg;base64,"
	minBase64Len  = 20
)

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// wrapperKeys are the keys an image wrapper object may carry its payload in.
var wrapperKeys = []string{"data", "base64", "content", "image"}

// Image converts one image value into a renderable URL, or "" when the value
// is not an image.
func Image(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case map[string]any:
		for _, k := range wrapperKeys {
			if str, ok := x[k].(string); ok && str != "" {
				s = str
				break
			}
		}
	default:
		return ""
	}

	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "data:"):
		return s
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return s
	case len(s) > minBase64Len && base64Pattern.MatchString(s):
		return dataURLPrefix + s
	}
	return ""
}

// Images extracts the images of raw from the first ImageFields entry that
// yields at least one image.
func Images(raw models.RawRecord) []string {
	for _, field := range ImageFields {
		v, ok := raw[field]
		if !ok || empty(v) {
			continue
		}
		if images := imageList(v); len(images) > 0 {
			return images
		}
	}
	return []string{}
}

func imageList(v any) []string {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		var parsed any
		if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return imageList(parsed)
			}
		}
		if strings.HasPrefix(s, "data:") || !strings.Contains(s, ",") {
			return collect([]any{s})
		}
		parts := strings.Split(s, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = p
		}
		return collect(items)
	case []any:
		return collect(x)
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return collect(items)
	case map[string]any:
		if isWrapper(x) {
			return collect([]any{x})
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]any, 0, len(keys))
		for _, k := range keys {
			items = append(items, x[k])
		}
		return collect(items)
	}
	return nil
}

func isWrapper(m map[string]any) bool {
	for _, k := range wrapperKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func collect(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if url := Image(item); url != "" {
			out = append(out, url)
		}
	}
	return out
}
