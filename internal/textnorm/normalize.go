// Package textnorm turns raw transcript text into the canonical form every
// scoring stage operates on.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	newlineRun    = regexp.MustCompile(`[\r\n]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize replaces newline runs with a single space, collapses whitespace
// runs, trims, and lowercases. Empty input yields "". Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = newlineRun.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}
