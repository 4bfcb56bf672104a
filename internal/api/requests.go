// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/apperr"
	syncpkg "github.com/tomtom215/theset/internal/sync"
	"github.com/tomtom215/theset/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 * 1024

// VoteRequest is the body of POST and DELETE /api/vote.
type VoteRequest struct {
	SongID string `json:"songId" validate:"required,max=64"`
}

// SyncRequestBody is the body of POST /api/sync. The entity type and the
// identifier rules are checked by sync.BuildRequest.
type SyncRequestBody struct {
	EntityType     string          `json:"entityType"`
	EntityID       string          `json:"entityId,omitempty" validate:"omitempty,uuid"`
	TicketmasterID string          `json:"ticketmasterId,omitempty" validate:"omitempty,max=64"`
	SpotifyID      string          `json:"spotifyId,omitempty" validate:"omitempty,max=64"`
	Options        syncpkg.Options `json:"options,omitempty"`
}

// EnqueueRequestBody is the body of POST /api/admin/queue.
type EnqueueRequestBody struct {
	SyncRequestBody
	Priority int `json:"priority" validate:"min=0,max=4"`
}

func (b *SyncRequestBody) input() syncpkg.RequestInput {
	return syncpkg.RequestInput{
		EntityType:     b.EntityType,
		EntityID:       b.EntityID,
		TicketmasterID: b.TicketmasterID,
		SpotifyID:      b.SpotifyID,
		Options:        b.Options,
	}
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("Request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required")
		default:
			return apperr.Wrap(apperr.KindValidation, "Invalid JSON body", err)
		}
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr.AppError()
	}
	return nil
}
