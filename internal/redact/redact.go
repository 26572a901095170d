// Package redact masks secret values in text that is about to be persisted.
package redact

import "strings"

// Placeholder replaces every masked value.
const Placeholder = "***"

// Mask replaces every secret value found by Scan with Placeholder.
// Overlapping matches are merged.
func Mask(text string) string {
	matches := Scan(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, m := range matches {
		if m.End <= pos {
			continue
		}
		if m.Start >= pos {
			b.WriteString(text[pos:m.Start])
			b.WriteString(Placeholder)
		}
		pos = m.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
