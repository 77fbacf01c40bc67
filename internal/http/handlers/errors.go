// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the symbolic error codes mapped to HTTP responses via
// the fail() helper in this package. The codes give clients a stable,
// machine-readable taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Validation codes (invalid_input, invalid_id, invalid_index) identify
//     which part of the request was rejected, all under HTTP 400.
//   - duplicate_vote maps to 409 Conflict; rate_limited to 429.
//   - All error responses carry both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate_vote",
//	  "message": "vote already recorded for this poll"
//	}
package handlers

const (
	ErrCodeInvalidInput    = "invalid_input"
	ErrCodeInvalidID       = "invalid_id"
	ErrCodeInvalidIndex    = "invalid_index"
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeNotFound        = "not_found"
	ErrCodeDuplicateVote   = "duplicate_vote"
	ErrCodeInternal        = "internal_error"

	// Transport-level:
	ErrCodeBadRequest       = "bad_request"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
