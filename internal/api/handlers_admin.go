// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"

	"github.com/tomtom215/theset/internal/middleware"
	"github.com/tomtom215/theset/internal/models"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

// EnqueueResponse reports the task created or merged by POST /api/admin/queue.
type EnqueueResponse struct {
	Task    *models.SyncTask `json:"task"`
	Created bool             `json:"created"`
}

// PerformanceResponse is the body of GET /api/admin/performance.
type PerformanceResponse struct {
	Endpoints []middleware.EndpointStats  `json:"endpoints"`
	Recent    []middleware.RequestMetrics `json:"recent"`
}

// QueueStats handles GET /api/admin/queue: task counts by status.
//
// @Summary Queue counts by status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Router /admin/queue [get]
func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, stats)
}

// EnqueueTask handles POST /api/admin/queue. An equivalent task already
// pending or processing is returned with created=false.
//
// @Summary Enqueue a sync task
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EnqueueRequestBody true "Task"
// @Success 200 {object} Response "Merged into an existing task"
// @Success 201 {object} Response "Task created"
// @Failure 400 {object} Response
// @Router /admin/queue [post]
func (h *Handler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	body := EnqueueRequestBody{Priority: models.PriorityNormal}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := syncpkg.BuildRequest(body.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, created, err := h.queue.Enqueue(r.Context(), req, body.Priority)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondData(w, r, status, &EnqueueResponse{Task: task, Created: created}, nil)
}

// Performance handles GET /api/admin/performance.
//
// @Summary Request latency statistics per endpoint
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Router /admin/performance [get]
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	resp := &PerformanceResponse{
		Endpoints: []middleware.EndpointStats{},
		Recent:    []middleware.RequestMetrics{},
	}
	if h.perfMon != nil {
		resp.Endpoints = h.perfMon.GetStats()
		resp.Recent = h.perfMon.GetRecentMetrics(50)
	}
	respondOK(w, r, resp)
}
