// Package services – VoteService
//
// This file implements the VoteService, which governs vote submission on
// polls. It enforces the vote policy pipeline in a fixed order: id and index
// shape checks, poll existence, bounds against the actual poll, the vote
// quota, and duplicate prevention. Anonymous votes are allowed; duplicate
// prevention applies only to authenticated voters.
//
// Duplicate detection is layered: a read-before-insert gives the common case
// a friendly answer, and the (poll_id, voter_id) unique index is the
// authority when two votes race past the read (see ErrDuplicateVote mapping
// on the insert path).
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/ratelimit"
	"github.com/tbourn/go-poll-backend/internal/repo"
	"github.com/tbourn/go-poll-backend/internal/validate"
)

// VoteService implements the use-cases around casting votes and reading
// tallies. It uses repository free functions directly against the injected
// GORM handle.
type VoteService struct {
	// DB is the database handle used for all vote operations.
	DB *gorm.DB
	// Limiter enforces the vote quota.
	Limiter *ratelimit.Limiter
}

// Results reports the per-option vote tallies for one poll. Counts is
// index-aligned with the poll's options.
type Results struct {
	PollID  string  `json:"poll_id"`
	Counts  []int64 `json:"counts"`
	Total   int64   `json:"total"`
	Options int     `json:"options"`
}

// Cast records actor's vote for optionIndex on pollID. origin is an optional
// network-origin identifier (client IP) used to bucket anonymous voters for
// rate limiting.
//
// Semantics and validation, in order:
//   - pollID must be a well-formed id; otherwise ErrInvalidID.
//   - optionIndex must be non-negative; otherwise ErrInvalidIndex.
//   - The poll must exist; otherwise ErrPollNotFound.
//   - optionIndex is bounds-checked against the stored poll's options, not
//     any caller-declared size; otherwise ErrInvalidIndex.
//   - The actor's vote quota must allow the request; otherwise ErrRateLimited.
//   - An authenticated actor may vote at most once per poll; otherwise
//     ErrDuplicateVote. Two racing votes can both pass the pre-check, so a
//     unique-constraint conflict on insert is mapped to the same error.
func (s *VoteService) Cast(ctx context.Context, pollID string, optionIndex int, actor Actor, origin string) error {
	if !validate.IsValidID(pollID) {
		return ErrInvalidID
	}
	if optionIndex < 0 {
		return ErrInvalidIndex
	}

	poll, err := repo.GetPoll(ctx, s.DB, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		return err
	}
	if !validate.IsValidOptionIndex(optionIndex, len(poll.Options)) {
		return ErrInvalidIndex
	}

	if res := s.Limiter.Check(limitKey(actor, origin), ratelimit.Vote); !res.Allowed {
		return ErrRateLimited
	}

	var voterID *string
	if !actor.Anonymous() {
		voted, err := repo.HasVoted(ctx, s.DB, pollID, actor.ID)
		if err != nil {
			return err
		}
		if voted {
			return ErrDuplicateVote
		}
		id := actor.ID
		voterID = &id
	}

	if _, err := repo.CreateVote(ctx, s.DB, pollID, voterID, optionIndex); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return ErrDuplicateVote
		}
		return err
	}
	return nil
}

// TallyResults returns the vote counts for pollID, index-aligned with the
// poll's options. Like Get, it requires no authentication.
func (s *VoteService) TallyResults(ctx context.Context, pollID string) (*Results, error) {
	if !validate.IsValidID(pollID) {
		return nil, ErrInvalidID
	}
	poll, err := repo.GetPoll(ctx, s.DB, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	byIndex, err := repo.VoteCounts(ctx, s.DB, pollID)
	if err != nil {
		return nil, err
	}
	out := &Results{
		PollID:  poll.ID,
		Counts:  make([]int64, len(poll.Options)),
		Options: len(poll.Options),
	}
	for i := range out.Counts {
		out.Counts[i] = byIndex[i]
		out.Total += byIndex[i]
	}
	return out, nil
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
