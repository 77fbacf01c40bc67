// Package services defines the business logic for polls and votes.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. Every policy or validation failure is one of these values;
// nothing in this layer panics across the service boundary.
package services

import "errors"

var (
	// ErrInvalidInput is returned when a question or option set violates the
	// content policy (length bounds, option count, empty entries).
	ErrInvalidInput = errors.New("invalid poll input")

	// ErrInvalidID is returned when a supplied identifier is not a
	// well-formed opaque id.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidIndex is returned when a vote's option index is negative or
	// out of bounds for the target poll.
	ErrInvalidIndex = errors.New("invalid option index")

	// ErrUnauthenticated is returned when an operation requires an identity
	// and the actor has none.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrRateLimited is returned when the actor has exhausted the operation's
	// quota window.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrPollNotFound indicates that the requested poll does not exist.
	ErrPollNotFound = errors.New("poll not found")

	// ErrDuplicateVote is returned when an authenticated actor attempts to
	// vote twice on the same poll.
	ErrDuplicateVote = errors.New("vote already recorded")
)
