// Poll HTTP handlers.
//
// This file exposes REST endpoints for poll resources:
//   - POST   /polls        (create)
//   - GET    /polls        (list own polls, paginated, ETag support)
//   - GET    /polls/{id}   (fetch one, public)
//   - PUT    /polls/{id}   (replace question and options)
//   - DELETE /polls/{id}   (delete)
//
// Handlers are transport-thin: they resolve the caller identity, delegate to
// application services, and translate service errors into HTTP responses.
// All content validation and sanitization happens in the service layer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
	"github.com/tbourn/go-poll-backend/internal/services"
	"github.com/tbourn/go-poll-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// PollService defines poll lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PollService interface {
	// Create makes a new poll owned by actor.
	Create(ctx context.Context, actor services.Actor, question string, options []string) (*domain.Poll, error)
	// Get fetches one poll by id, regardless of owner.
	Get(ctx context.Context, id string) (*domain.Poll, error)
	// ListOwnedPage returns a page of the actor's polls and the total count.
	ListOwnedPage(ctx context.Context, actor services.Actor, page, pageSize int) ([]domain.Poll, int64, error)
	// Update replaces the question and options of a poll owned by actor.
	Update(ctx context.Context, actor services.Actor, id, question string, options []string) error
	// Delete removes a poll owned by actor.
	Delete(ctx context.Context, actor services.Actor, id string) error
}

// VoteService defines vote submission and tally operations.
type VoteService interface {
	// Cast records actor's vote for an option on a poll.
	Cast(ctx context.Context, pollID string, optionIndex int, actor services.Actor, origin string) error
	// TallyResults returns per-option vote counts for a poll.
	TallyResults(ctx context.Context, pollID string) (*services.Results, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for polls and votes. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	pollSvc PollService
	voteSvc VoteService
}

// New constructs a Handlers instance bound to the given services.
func New(pollSvc PollService, voteSvc VoteService) *Handlers {
	return &Handlers{pollSvc: pollSvc, voteSvc: voteSvc}
}

// actor resolves the caller identity from the Gin context (set by upstream
// auth middleware under "userID"), falling back to the "X-User-ID" header
// (tests and demo clients use it). An absent identity yields the anonymous
// actor; the service layer decides which operations anonymous callers may
// perform.
func actor(c *gin.Context) services.Actor {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return services.Actor{ID: s}
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return services.Actor{ID: h}
		}
	}
	return services.Actor{}
}

//
// DTOs
//

// PollRequest is the JSON payload for creating or replacing a poll.
type PollRequest struct {
	// Question is the poll prompt (3-500 chars after sanitization).
	Question string `json:"question" example:"What's your favorite color?"`
	// Options are the answer choices (2-10 entries, each 1-200 chars).
	Options []string `json:"options" example:"Red,Blue,Green"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPollsResponse wraps a page of polls and pagination information.
type ListPollsResponse struct {
	Polls      []domain.Poll `json:"polls"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService translates a service-layer error into the appropriate HTTP
// status and stable code. Unknown errors are reported as 500 with a
// driver-safe message so storage internals never leak to clients.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "invalid question or options")
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeInvalidID, "invalid poll id")
	case errors.Is(err, services.ErrInvalidIndex):
		fail(c, http.StatusBadRequest, ErrCodeInvalidIndex, "invalid option index")
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthenticated, "authentication required")
	case errors.Is(err, services.ErrRateLimited):
		c.Header("Retry-After", "1")
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded")
	case errors.Is(err, services.ErrPollNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "poll not found")
	case errors.Is(err, services.ErrDuplicateVote):
		fail(c, http.StatusConflict, ErrCodeDuplicateVote, "vote already recorded for this poll")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, services.SafeMessage(err))
	}
}

//
// Handlers
//

// CreatePoll godoc
// @ID          createPoll
// @Summary     Create a new poll
// @Description Creates a poll owned by the current user and returns the poll resource.
// @Tags        Polls
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.PollRequest  true  "Create poll payload"
//
// @Success     201  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     401  {object}  handlers.ErrorResponse  "Authentication required"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls [post]
func (h *Handlers) CreatePoll(c *gin.Context) {
	var req PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.pollSvc.Create(c.Request.Context(), actor(c), req.Question, req.Options)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetPoll godoc
// @ID          getPoll
// @Summary     Fetch a poll
// @Description Returns a single poll by id. No authentication required.
// @Tags        Polls
// @Produce     json
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls/{id} [get]
func (h *Handlers) GetPoll(c *gin.Context) {
	p, err := h.pollSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListPolls godoc
// @ID          listPolls
// @Summary     List own polls (paginated)
// @Description Returns a page of the current user's polls, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Polls
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "User ID (demo header)"        example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                   minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"                minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPollsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls [get]
func (h *Handlers) ListPolls(c *gin.Context) {
	ctx := c.Request.Context()
	a := actor(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.pollSvc.(*services.PollService); ok {
		db = svc.DB
	}
	if db != nil && !a.Anonymous() {
		count, maxTS, err := repo.PollsStats(ctx, db, a.ID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"polls:%s:%d:%d"`, a.ID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.pollSvc.ListOwnedPage(ctx, a, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPollsResponse{
		Polls: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UpdatePoll godoc
// @ID          updatePoll
// @Summary     Replace a poll's question and options
// @Description Updates a poll owned by the current user. Succeeds with 204 even when no matching poll exists, so callers cannot probe for foreign poll ids.
// @Tags        Polls
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Poll ID (UUID)"         format(uuid)
// @Param       body       body    handlers.PollRequest  true  "Replacement payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid input or id"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls/{id} [put]
func (h *Handlers) UpdatePoll(c *gin.Context) {
	var req PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.pollSvc.Update(c.Request.Context(), actor(c), c.Param("id"), req.Question, req.Options); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// DeletePoll godoc
// @ID          deletePoll
// @Summary     Delete a poll
// @Description Deletes a poll owned by the current user. Succeeds with 204 even when no matching poll exists.
// @Tags        Polls
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Poll ID (UUID)"         format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid id"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls/{id} [delete]
func (h *Handlers) DeletePoll(c *gin.Context) {
	if err := h.pollSvc.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
