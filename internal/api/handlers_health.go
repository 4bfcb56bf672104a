// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// Version is set at build time with -ldflags "-X .../internal/api.Version=...".
var Version = "dev"

// readinessTimeout bounds the database ping of /api/health/ready.
const readinessTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	GoVersion         string  `json:"goVersion"`
	DatabaseConnected bool    `json:"databaseConnected"`
	SyncSource        string  `json:"syncSource"`
	Uptime            float64 `json:"uptimeSeconds"`
}

// Health handles GET /api/health. It always answers 200; status is
// "degraded" when the database is unreachable.
//
// @Summary Service health
// @Tags Core
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.pingStore(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	var source string
	if h.syncer != nil {
		source = h.syncer.SourceName()
	}

	respondOK(w, r, &HealthStatus{
		Status:            status,
		Version:           Version,
		GoVersion:         runtime.Version(),
		DatabaseConnected: dbConnected,
		SyncSource:        source,
		Uptime:            h.now().Sub(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /api/health/live: the process is serving.
//
// @Summary Liveness check
// @Tags Core
// @Produce json
// @Success 200 {object} Response
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/health/ready: 503 until the database answers.
//
// @Summary Readiness check
// @Tags Core
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.pingStore(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, &Response{
			Success: false,
			Error:   "Database not ready",
			Code:    "SERVICE_UNAVAILABLE",
		})
		return
	}
	respondOK(w, r, map[string]string{"status": "ready"})
}

func (h *Handler) pingStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}
