// Package validate provides pure, structural format checks for untrusted
// request fields. Every function is a predicate: no errors, no side effects.
// Length and count policy for poll content lives with the services that
// enforce it; this package only knows shapes.
package validate

import "regexp"

// maxEmailLen is the RFC 5321 overall address ceiling.
const maxEmailLen = 254

var (
	// idRE accepts opaque identifiers: 1–50 chars of [A-Za-z0-9_-].
	// UUIDs, nanoids and slug-style ids all fit; path traversal and
	// separator characters do not.
	idRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

	// emailRE is an RFC-light local@domain.tld shape check, not a full
	// RFC 5322 grammar.
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsValidID reports whether id is a well-formed opaque identifier.
func IsValidID(id string) bool { return idRE.MatchString(id) }

// IsValidOptionIndex reports whether index addresses one of optionCount
// options, i.e. 0 <= index < optionCount.
func IsValidOptionIndex(index, optionCount int) bool {
	return index >= 0 && index < optionCount
}

// IsValidEmail reports whether email has a plausible local@domain.tld shape
// and fits the overall length ceiling.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLen && emailRE.MatchString(email)
}
