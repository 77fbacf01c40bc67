// Package services – PollService
//
// This file implements the PollService, which manages the lifecycle of polls.
// It sanitizes and validates questions and options, enforces authentication
// and the poll-creation quota, and coordinates repository operations for
// creating, reading, listing (with pagination), updating, and deleting polls.
//
// Service-level errors (e.g. ErrInvalidInput, ErrUnauthenticated,
// ErrRateLimited) are returned for predictable cases so handlers can map them
// to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/ratelimit"
	"github.com/tbourn/go-poll-backend/internal/sanitize"
	"github.com/tbourn/go-poll-backend/internal/validate"
)

// Content policy bounds for poll input, measured in runes.
const (
	QuestionMinLen = 3
	QuestionMaxLen = 500
	OptionMaxLen   = 200
	MinOptions     = 2
	MaxOptions     = 10
)

// PollRepo defines the repository contract required by PollService.
// Implementations are responsible for persistence of poll aggregates.
type PollRepo interface {
	// CreatePoll inserts a new poll row for the given owner.
	CreatePoll(ctx context.Context, db *gorm.DB, ownerID, question string, options []string) (*domain.Poll, error)

	// GetPoll fetches a poll by ID with no ownership filter.
	GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error)

	// ListPolls returns all polls owned by ownerID, newest first.
	ListPolls(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Poll, error)

	// CountPolls returns the total number of polls for pagination.
	CountPolls(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)

	// ListPollsPage returns a page of polls owned by ownerID.
	ListPollsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Poll, error)

	// UpdatePoll replaces question and options when id AND owner match,
	// reporting rows affected.
	UpdatePoll(ctx context.Context, db *gorm.DB, id, ownerID, question string, options []string) (int64, error)

	// DeletePoll removes a poll when id AND owner match, reporting rows
	// affected.
	DeletePoll(ctx context.Context, db *gorm.DB, id, ownerID string) (int64, error)
}

// PollService provides poll-level operations: create, read, list, update,
// delete. It is a stateless policy layer over the repository; the only
// mutable state it touches is the injected rate limiter.
type PollService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the poll repository used by this service.
	Repo PollRepo
	// Limiter enforces the poll-creation quota.
	Limiter *ratelimit.Limiter
}

// NewPollService constructs a PollService.
func NewPollService(db *gorm.DB, r PollRepo, l *ratelimit.Limiter) *PollService {
	return &PollService{DB: db, Repo: r, Limiter: l}
}

// Create validates and sanitizes a new poll and inserts it on behalf of
// actor. The check order is fixed: content policy first, then
// authentication, then the creation quota, so an unauthenticated or
// rate-limited caller cannot probe which inputs are acceptable for free.
func (s *PollService) Create(ctx context.Context, actor Actor, question string, options []string) (*domain.Poll, error) {
	q, opts, err := cleanPollInput(question, options)
	if err != nil {
		return nil, err
	}
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if res := s.Limiter.Check(limitKey(actor, ""), ratelimit.CreatePoll); !res.Allowed {
		return nil, ErrRateLimited
	}
	return s.Repo.CreatePoll(ctx, s.DB, actor.ID, q, opts)
}

// Get fetches a poll by ID. No authentication is required: polls are
// publicly viewable so anonymous users can read and vote.
func (s *PollService) Get(ctx context.Context, id string) (*domain.Poll, error) {
	p, err := s.Repo.GetPoll(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListOwned returns all polls created by actor, newest first.
func (s *PollService) ListOwned(ctx context.Context, actor Actor) ([]domain.Poll, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	return s.Repo.ListPolls(ctx, s.DB, actor.ID)
}

// ListOwnedPage returns a page of actor's polls and the total count.
// It applies defaults for invalid page/pageSize.
func (s *PollService) ListOwnedPage(ctx context.Context, actor Actor, page, pageSize int) ([]domain.Poll, int64, error) {
	if actor.Anonymous() {
		return nil, 0, ErrUnauthenticated
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPolls(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Poll{}, 0, nil
	}

	items, err := s.Repo.ListPollsPage(ctx, s.DB, actor.ID, offset, pageSize)
	return items, total, err
}

// Update replaces a poll's question and whole option list through the same
// sanitization pipeline as Create. The mutation is filtered by id AND owner;
// zero rows affected (missing poll or foreign owner) still reports success,
// so the API cannot be used to probe poll existence or ownership.
func (s *PollService) Update(ctx context.Context, actor Actor, id, question string, options []string) error {
	if !validate.IsValidID(id) {
		return ErrInvalidID
	}
	q, opts, err := cleanPollInput(question, options)
	if err != nil {
		return err
	}
	if actor.Anonymous() {
		return ErrUnauthenticated
	}
	_, err = s.Repo.UpdatePoll(ctx, s.DB, id, actor.ID, q, opts)
	return err
}

// Delete removes actor's poll. Same ownership filter and zero-rows semantics
// as Update.
func (s *PollService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.Anonymous() {
		return ErrUnauthenticated
	}
	if !validate.IsValidID(id) {
		return ErrInvalidID
	}
	_, err := s.Repo.DeletePoll(ctx, s.DB, id, actor.ID)
	return err
}

// cleanPollInput enforces the content policy and returns the sanitized
// question and options. Raw lengths are bounded before sanitization so
// attacker-supplied input is capped before any processing; sanitized values
// are re-checked against the minimums because stripping can shrink a
// borderline value below its floor.
func cleanPollInput(question string, options []string) (string, []string, error) {
	if n := utf8.RuneCountInString(question); n < QuestionMinLen || n > QuestionMaxLen {
		return "", nil, ErrInvalidInput
	}
	if len(options) < MinOptions || len(options) > MaxOptions {
		return "", nil, ErrInvalidInput
	}
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" || utf8.RuneCountInString(opt) > OptionMaxLen {
			return "", nil, ErrInvalidInput
		}
	}

	q := sanitize.Clean(question)
	if utf8.RuneCountInString(q) < QuestionMinLen {
		return "", nil, ErrInvalidInput
	}
	opts := make([]string, len(options))
	for i, opt := range options {
		cleaned := sanitize.Clean(opt)
		if cleaned == "" {
			return "", nil, ErrInvalidInput
		}
		opts[i] = cleaned
	}
	return q, opts, nil
}
