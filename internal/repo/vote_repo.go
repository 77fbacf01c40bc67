// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// CreateVote inserts a vote for pollID. voterID is nil for anonymous votes.
// The (poll_id, voter_id) unique index makes a duplicate authenticated vote
// fail at insert time; the raw constraint error is propagated for the service
// layer to classify.
func CreateVote(ctx context.Context, db *gorm.DB, pollID string, voterID *string, optionIndex int) (*domain.Vote, error) {
	v := &domain.Vote{
		ID:          uuid.NewString(),
		PollID:      pollID,
		VoterID:     voterID,
		OptionIndex: optionIndex,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// HasVoted reports whether voterID has already voted on pollID. Anonymous
// votes are never counted as duplicates, so callers skip this check for them.
func HasVoted(ctx context.Context, db *gorm.DB, pollID, voterID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		Count(&n).Error
	return n > 0, err
}

// VoteCounts returns the tally of votes per option index for pollID.
// Options with no votes are absent from the map.
func VoteCounts(ctx context.Context, db *gorm.DB, pollID string) (map[int]int64, error) {
	var rows []struct {
		OptionIndex int
		N           int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("option_index, COUNT(*) AS n").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.OptionIndex] = r.N
	}
	return out, nil
}

// CountVotes returns the total number of votes on pollID.
func CountVotes(ctx context.Context, db *gorm.DB, pollID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("poll_id = ?", pollID).
		Count(&total).Error
	return total, err
}
