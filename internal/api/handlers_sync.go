// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/logging"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

// SyncTestResult wraps an admin sync run with diagnostics.
type SyncTestResult struct {
	*syncpkg.Result
	DurationMS  int64  `json:"durationMs"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

// Sync handles POST /api/sync. The orchestrator result is written as is:
// {success, entityType, entityId, source, data, ...}.
//
// @Summary Sync an entity from upstream
// @Tags Sync
// @Accept json
// @Produce json
// @Param body body SyncRequestBody true "Sync request"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseSyncRequest(w, r)
	if !ok {
		return
	}

	result, err := h.syncer.Sync(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncTest handles POST /api/admin/sync-test: the same sync run, reported
// with its duration and the admin who requested it.
//
// @Summary Run a sync and report its duration
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SyncRequestBody true "Sync request"
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Router /admin/sync-test [post]
func (h *Handler) SyncTest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseSyncRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.syncer.Sync(r.Context(), req)
	elapsed := time.Since(start)

	var requestedBy string
	if subject := auth.SubjectFromContext(r.Context()); subject != nil {
		requestedBy = subject.ID
	}
	logging.Ctx(r.Context()).Info().
		Str("entity_type", req.EntityType.String()).
		Str("identifier", sanitizeLogValue(req.Identifier())).
		Str("requested_by", requestedBy).
		Dur("duration", elapsed).
		Bool("success", err == nil).
		Msg("Admin sync test")

	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &SyncTestResult{
		Result:      result,
		DurationMS:  elapsed.Milliseconds(),
		RequestedBy: requestedBy,
	})
}

func (h *Handler) parseSyncRequest(w http.ResponseWriter, r *http.Request) (*syncpkg.Request, bool) {
	var body SyncRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return nil, false
	}
	req, err := syncpkg.BuildRequest(body.input())
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return req, true
}
