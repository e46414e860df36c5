package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s{2,}`)

// CollapseWhitespace replaces runs of two or more whitespace characters with a
// single space and trims the result.
func CollapseWhitespace(value string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}

// SanitizeBaseName lowercases name and drops every character outside [a-z0-9].
func SanitizeBaseName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatSeconds renders a timestamp for chunk file names: the shortest
// decimal form, always carrying a fractional part ("1.0", "12.345").
func FormatSeconds(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
