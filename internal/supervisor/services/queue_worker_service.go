// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package services

import (
	"context"
	"time"

	"github.com/tomtom215/theset/internal/logging"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

// QueueProcessor is the part of *sync.Worker the ticker drives.
type QueueProcessor interface {
	ProcessBatch(ctx context.Context) (*syncpkg.BatchResult, error)
	Cleanup(ctx context.Context) (*syncpkg.CleanupResult, error)
}

// QueueWorkerService drains the sync task queue in-process, for deployments
// without an external cron calling /api/cron/process-queue. A batch runs
// every interval; cleanup runs every cleanupInterval.
type QueueWorkerService struct {
	worker          QueueProcessor
	interval        time.Duration
	cleanupInterval time.Duration
	name            string
}

// NewQueueWorkerService creates the ticker. A non-positive interval means
// 30s; a non-positive cleanupInterval disables cleanup.
func NewQueueWorkerService(worker QueueProcessor, interval, cleanupInterval time.Duration) *QueueWorkerService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &QueueWorkerService{
		worker:          worker,
		interval:        interval,
		cleanupInterval: cleanupInterval,
		name:            "queue-worker",
	}
}

// Serve implements suture.Service. Batch errors are logged and the ticker
// keeps going; the next tick retries.
func (s *QueueWorkerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var cleanup <-chan time.Time
	if s.cleanupInterval > 0 {
		t := time.NewTicker(s.cleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	logger := logging.WithComponent(s.name)
	logger.Info().Dur("interval", s.interval).Msg("Queue worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			runCtx := logging.ContextWithNewCorrelationID(ctx)
			res, err := s.worker.ProcessBatch(runCtx)
			if err != nil {
				logger.Error().Err(err).Msg("Queue batch failed")
				continue
			}
			if res.Claimed > 0 || res.Released > 0 {
				logger.Info().
					Int("claimed", res.Claimed).
					Int("completed", res.Completed).
					Int("retried", res.Retried).
					Int("failed", res.Failed).
					Int("released", res.Released).
					Msg("Queue batch processed")
			}

		case <-cleanup:
			res, err := s.worker.Cleanup(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Queue cleanup failed")
				continue
			}
			logger.Debug().Int("deleted", res.Deleted).Int("released", res.Released).Msg("Queue cleanup done")
		}
	}
}

func (s *QueueWorkerService) String() string {
	return s.name
}
