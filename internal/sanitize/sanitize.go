// Package sanitize strips markup- and script-injection vectors from
// user-supplied free text before it is validated or persisted.
//
// The transform is deliberately character-level rather than an HTML parse:
// poll questions and options are plain text, so anything that looks like a
// tag, a javascript: scheme, or an inline event handler is simply removed.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLen caps sanitized text length in runes.
const MaxLen = 1000

var (
	// jsSchemeRE matches the javascript: URL scheme prefix, case-insensitively.
	jsSchemeRE = regexp.MustCompile(`(?i)javascript:`)
	// eventAttrRE matches inline event-handler attribute patterns like
	// onclick= or ONERROR = , case-insensitively.
	eventAttrRE = regexp.MustCompile(`(?i)on\w+\s*=`)

	angleReplacer = strings.NewReplacer("<", "", ">", "")
)

// Clean normalizes free text: trims surrounding whitespace, removes angle
// brackets, javascript: scheme prefixes and on<word>= event-handler patterns,
// and truncates to MaxLen runes. Clean is pure and idempotent:
// Clean(Clean(s)) == Clean(s) for every input.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = angleReplacer.Replace(s)
	s = stripAll(s, jsSchemeRE)
	s = stripAll(s, eventAttrRE)
	if r := []rune(s); len(r) > MaxLen {
		s = string(r[:MaxLen])
	}
	// Removal and truncation can expose new edge whitespace; trim again so a
	// second pass is a no-op.
	return strings.TrimSpace(s)
}

// stripAll removes every match of re, repeating until no match remains.
// A single pass is not enough: deleting one occurrence can splice the
// surrounding text into a fresh occurrence (e.g. "jjavascript:avascript:").
func stripAll(s string, re *regexp.Regexp) string {
	for re.MatchString(s) {
		s = re.ReplaceAllString(s, "")
	}
	return s
}
