package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// placeholders are values producers emit in place of a missing field.
var placeholders = map[string]bool{
	"":              true,
	"unknown":       true,
	"n/a":           true,
	"na":            true,
	"none":          true,
	"null":          true,
	"nil":           true,
	"-":             true,
	"–":             true,
	"—":             true,
	"not available": true,
	"not disclosed": true,
	"undisclosed":   true,
	"not specified": true,
}

// CleanText converts a raw field value to clean text. Lists are joined with
// a space, markup tags are stripped, entities decoded and whitespace
// collapsed. Values of unsupported kinds yield "".
func CleanText(v any) string {
	s, _ := text(v)
	return s
}

// text is CleanText that also reports whether the value kind was usable.
func text(v any) (string, bool) {
	var raw string
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		raw = t
	case []string:
		raw = joinParts(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := text(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		raw = joinParts(parts)
	case float64:
		raw = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		raw = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int64, int32, uint, uint64, bool:
		raw = fmt.Sprint(t)
	case fmt.Stringer:
		raw = t.String()
	default:
		return "", false
	}

	raw = tagPattern.ReplaceAllString(raw, " ")
	raw = html.UnescapeString(raw)
	return strings.Join(strings.Fields(raw), " "), true
}

func joinParts(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// Unresolved reports whether cleaned text carries no information.
func Unresolved(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}
