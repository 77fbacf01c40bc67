// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Poll model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a poll is not found, GetPoll returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Ownership-filtered mutations (UpdatePoll, DeletePoll) report the number
//     of rows they touched instead of failing; the policy layer decides what
//     zero rows means.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service layer
// and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePoll inserts a new Poll owned by ownerID. The poll ID is a randomly
// generated UUID and CreatedAt is set to UTC.
func CreatePoll(ctx context.Context, db *gorm.DB, ownerID, question string, options []string) (*domain.Poll, error) {
	p := &domain.Poll{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Question:  question,
		Options:   domain.StringSlice(options),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPoll fetches a single poll by ID with no ownership filter; polls are
// publicly viewable. Returns ErrNotFound if the record does not exist.
func GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error) {
	var p domain.Poll
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPolls returns all polls owned by ownerID, newest first. It returns an
// empty slice when the owner has no polls.
func ListPolls(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Poll, error) {
	var out []domain.Poll
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountPolls returns the total number of polls owned by ownerID.
func CountPolls(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

// ListPollsPage returns a paginated slice of polls for ownerID, newest first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListPollsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Poll, error) {
	var out []domain.Poll
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdatePoll replaces the question and the whole option list of the poll
// identified by id, but only when it is owned by ownerID. It returns the
// number of rows affected: zero means the poll is missing or owned by someone
// else, and the two cases are indistinguishable to the caller.
func UpdatePoll(ctx context.Context, db *gorm.DB, id, ownerID, question string, options []string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{
			"question": question,
			"options":  domain.StringSlice(options),
		})
	return res.RowsAffected, res.Error
}

// DeletePoll soft-deletes the poll identified by id when owned by ownerID,
// with the same rows-affected contract as UpdatePoll.
func DeletePoll(ctx context.Context, db *gorm.DB, id, ownerID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Poll{})
	return res.RowsAffected, res.Error
}
