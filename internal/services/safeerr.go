package services

import "strings"

// SafeMessage converts a storage error into a fixed, user-safe string.
// Raw driver messages can leak table names, constraint names, or row
// existence on authorization-sensitive paths, so only a handful of
// recognized classes get a specific message and everything else collapses
// to a generic one.
func SafeMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate"):
		return "resource already exists"
	case strings.Contains(msg, "record not found") || strings.Contains(msg, "not found"):
		return "resource not found"
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return "operation not permitted"
	default:
		return "internal storage error"
	}
}
