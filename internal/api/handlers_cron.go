// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/theset/internal/logging"
)

// cronJob runs one scheduled queue operation and writes its summary.
func (h *Handler) cronJob(name string, run func(ctx context.Context) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithNewCorrelationID(r.Context())
		r = r.WithContext(ctx)

		start := time.Now()
		result, err := run(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}

		logging.Ctx(ctx).Info().
			Str("job", name).
			Dur("duration", time.Since(start)).
			Interface("result", result).
			Msg("Cron job completed")
		respondOK(w, r, result)
	}
}

// CronProcessQueue handles /api/cron/process-queue.
//
// @Summary Process one batch of queued sync tasks
// @Tags Cron
// @Produce json
// @Security CronBearer
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /cron/process-queue [post]
func (h *Handler) CronProcessQueue() http.HandlerFunc {
	return h.cronJob("process-queue", func(ctx context.Context) (interface{}, error) {
		return h.queue.ProcessBatch(ctx)
	})
}

// CronRefreshStale handles /api/cron/refresh-stale.
//
// @Summary Queue stale artists and upcoming shows
// @Tags Cron
// @Produce json
// @Security CronBearer
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /cron/refresh-stale [post]
func (h *Handler) CronRefreshStale() http.HandlerFunc {
	return h.cronJob("refresh-stale", func(ctx context.Context) (interface{}, error) {
		return h.queue.RefreshStale(ctx)
	})
}

// CronSyncTrending handles /api/cron/sync-trending.
//
// @Summary Queue the most-voted upcoming shows
// @Tags Cron
// @Produce json
// @Security CronBearer
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /cron/sync-trending [post]
func (h *Handler) CronSyncTrending() http.HandlerFunc {
	return h.cronJob("sync-trending", func(ctx context.Context) (interface{}, error) {
		return h.queue.SyncTrending(ctx)
	})
}

// CronCleanup handles /api/cron/cleanup.
//
// @Summary Release expired leases and delete old completed tasks
// @Tags Cron
// @Produce json
// @Security CronBearer
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /cron/cleanup [post]
func (h *Handler) CronCleanup() http.HandlerFunc {
	return h.cronJob("cleanup", func(ctx context.Context) (interface{}, error) {
		return h.queue.Cleanup(ctx)
	})
}
