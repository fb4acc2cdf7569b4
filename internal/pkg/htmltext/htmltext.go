// Package htmltext turns the CMS's rich-text fields into something a
// terminal row can show: markup stripped, whitespace collapsed, length
// capped.
package htmltext

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain strips all HTML markup and collapses runs of whitespace.
func Plain(html string) string {
	stripped := strict.Sanitize(html)
	return strings.Join(strings.Fields(stripped), " ")
}

// Truncate shortens s to max runes, appending an ellipsis when cut. A max of
// zero or less returns s unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// Preview is the list-row helper: strip markup, then cap the length.
func Preview(html string, max int) string {
	return Truncate(Plain(html), max)
}
