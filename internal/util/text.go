package util

import "strings"

// SanitizeText drops invalid UTF-8 and NUL bytes, both of which Postgres
// rejects in TEXT columns.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// SanitizeTexts applies SanitizeText to every element. A nil slice stays nil.
func SanitizeTexts(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = SanitizeText(v)
	}
	return out
}
