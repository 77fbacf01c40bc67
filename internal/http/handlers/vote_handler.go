// Vote HTTP handlers.
//
// This file exposes REST endpoints for votes and tallies:
//   - POST /polls/{id}/votes    (cast a vote)
//   - GET  /polls/{id}/results  (per-option tallies, public)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CastVoteRequest is the JSON payload for casting a vote.
type CastVoteRequest struct {
	// OptionIndex selects the poll option, zero-based.
	OptionIndex int `json:"option_index" example:"0"`
}

// CastVote godoc
// @ID          castVote
// @Summary     Cast a vote
// @Description Records a vote on a poll option. Anonymous votes are allowed; authenticated users may vote at most once per poll.
// @Tags        Votes
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Poll ID (UUID)"         format(uuid)
// @Param       body       body    handlers.CastVoteRequest  true  "Vote payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid id or index"
// @Failure     404  {object} handlers.ErrorResponse "Poll not found"
// @Failure     409  {object} handlers.ErrorResponse "Vote already recorded"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls/{id}/votes [post]
func (h *Handlers) CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// ClientIP buckets anonymous voters for the vote quota.
	err := h.voteSvc.Cast(c.Request.Context(), c.Param("id"), req.OptionIndex, actor(c), c.ClientIP())
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// GetResults godoc
// @ID          getResults
// @Summary     Fetch poll results
// @Description Returns per-option vote tallies for a poll. No authentication required.
// @Tags        Votes
// @Produce     json
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object} services.Results
// @Failure     400  {object} handlers.ErrorResponse "Invalid id"
// @Failure     404  {object} handlers.ErrorResponse "Poll not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls/{id}/results [get]
func (h *Handlers) GetResults(c *gin.Context) {
	res, err := h.voteSvc.TallyResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
