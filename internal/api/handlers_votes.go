// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

// VoteResponse is the data of a successful vote change.
type VoteResponse struct {
	SongID    string `json:"songId"`
	VoteCount int    `json:"voteCount"`
}

// CastVote handles POST /api/vote.
//
// @Summary Cast a vote
// @Tags Votes
// @Accept json
// @Produce json
// @Param body body VoteRequest true "Song to vote for"
// @Success 200 {object} Response{data=VoteResponse}
// @Failure 400 {object} Response "Already voted for this song"
// @Failure 403 {object} Response "Anonymous vote limit reached"
// @Failure 404 {object} Response "Song not found in setlist"
// @Router /vote [post]
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	h.changeVote(w, r, events.VoteActionCast)
}

// RemoveVote handles DELETE /api/vote.
//
// @Summary Remove a vote
// @Tags Votes
// @Accept json
// @Produce json
// @Param body body VoteRequest true "Song to unvote"
// @Success 200 {object} Response{data=VoteResponse}
// @Failure 404 {object} Response "Vote not found"
// @Router /vote [delete]
func (h *Handler) RemoveVote(w http.ResponseWriter, r *http.Request) {
	h.changeVote(w, r, events.VoteActionRemoved)
}

func (h *Handler) changeVote(w http.ResponseWriter, r *http.Request, action string) {
	var body VoteRequest
	if err := decodeBody(w, r, &body); err != nil {
		metrics.RecordVoteRejection("invalid_request")
		writeError(w, r, err)
		return
	}

	voter := h.voter(w, r)
	if !voter.Valid() {
		metrics.RecordVoteRejection("no_identity")
		writeError(w, r, apperr.Unauthorized("Voter identity required"))
		return
	}

	var (
		result *models.VoteResult
		err    error
	)
	if action == events.VoteActionCast {
		result, err = h.store.CastVote(r.Context(), body.SongID, voter, h.config.Votes.AnonymousLimit)
	} else {
		result, err = h.store.RemoveVote(r.Context(), body.SongID, voter)
	}
	if err != nil {
		metrics.RecordVoteRejection(rejectionReason(err))
		writeError(w, r, err)
		return
	}

	metrics.RecordVote(action, voter.IsAnonymous())
	h.publishVote(r.Context(), result, action)

	respondOK(w, r, VoteResponse{SongID: result.SongID, VoteCount: result.VoteCount})
}

// publishVote announces the new count. Failures are logged; the vote has
// already been committed.
func (h *Handler) publishVote(ctx context.Context, result *models.VoteResult, action string) {
	if h.publisher == nil || result.ShowID == "" {
		return
	}
	err := h.publisher.PublishVoteUpdated(ctx, &events.VoteUpdated{
		ShowID:    result.ShowID,
		SongID:    result.SongID,
		VoteCount: result.VoteCount,
		Action:    action,
		At:        h.now(),
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("song_id", result.SongID).Msg("Failed to publish vote update")
	}
}

func rejectionReason(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		return "duplicate"
	case apperr.KindForbidden:
		return "anonymous_limit"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindUnauthorized:
		return "no_identity"
	default:
		return "error"
	}
}
