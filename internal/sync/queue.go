// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

// QueueStore is the task queue and the listing queries used to fill it.
type QueueStore interface {
	EnqueueTask(ctx context.Context, p database.EnqueueParams) (*models.SyncTask, bool, error)
	ClaimTasks(ctx context.Context, workerID string, n int) ([]models.SyncTask, error)
	CompleteTask(ctx context.Context, id, workerID string) error
	FailTask(ctx context.Context, id, workerID, lastError string, baseDelay time.Duration) (bool, error)
	AbandonTask(ctx context.Context, id, workerID, lastError string) error
	ReleaseExpired(ctx context.Context, lease time.Duration) (int, error)
	CleanupTasks(ctx context.Context, retention time.Duration) (int, error)
	QueueStats(ctx context.Context) (models.QueueStats, error)

	ListStaleArtists(ctx context.Context, cutoff time.Time, limit int) ([]models.Artist, error)
	ListStaleShows(ctx context.Context, now, cutoff time.Time, limit int) ([]models.Show, error)
	ListTrendingShows(ctx context.Context, now time.Time, limit int) ([]models.Show, error)
}

// Syncer runs one sync request. Implemented by *Orchestrator.
type Syncer interface {
	Sync(ctx context.Context, req *Request) (*Result, error)
}

// BatchResult summarizes one ProcessBatch call.
type BatchResult struct {
	Released  int `json:"released"`
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	LeaseLost int `json:"leaseLost"`
}

// EnqueueResult summarizes a scheduling run.
type EnqueueResult struct {
	Considered int `json:"considered"`
	Enqueued   int `json:"enqueued"`
	Merged     int `json:"merged"`
}

// CleanupResult summarizes a cleanup run.
type CleanupResult struct {
	Released int `json:"released"`
	Deleted  int `json:"deleted"`
}

// Worker drains the sync task queue.
type Worker struct {
	store  QueueStore
	syncer Syncer
	cfg    config.SyncConfig
	id     string
	now    func() time.Time

	// batchMu keeps scheduled and cron-triggered batches from overlapping
	// inside one process. Claims are atomic across processes regardless.
	batchMu sync.Mutex
}

// NewWorker returns a worker with a unique id. A nil now uses time.Now.
func NewWorker(store QueueStore, syncer Syncer, cfg *config.SyncConfig, now func() time.Time) *Worker {
	if now == nil {
		now = time.Now
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return &Worker{
		store:  store,
		syncer: syncer,
		cfg:    *cfg,
		id:     fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		now:    now,
	}
}

// ID returns the worker id stamped on claimed tasks.
func (w *Worker) ID() string {
	return w.id
}

// Enqueue queues req. created is false when an equivalent task was already
// pending or processing.
func (w *Worker) Enqueue(ctx context.Context, req *Request, priority int) (*models.SyncTask, bool, error) {
	return w.store.EnqueueTask(ctx, database.EnqueueParams{
		EntityType:     req.EntityType.String(),
		EntityID:       req.EntityID,
		TicketmasterID: req.TicketmasterID,
		SpotifyID:      req.SpotifyID,
		Options:        req.Options,
		Priority:       priority,
		MaxAttempts:    w.cfg.MaxAttempts,
	})
}

// ProcessBatch returns expired leases to the queue, then claims and runs up
// to QueueBatchSize due tasks.
func (w *Worker) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()
	defer func() { metrics.QueueBatchDuration.Observe(time.Since(start).Seconds()) }()

	res := &BatchResult{}

	released, err := w.store.ReleaseExpired(ctx, w.cfg.LeaseTimeout)
	if err != nil {
		return res, fmt.Errorf("release expired tasks: %w", err)
	}
	res.Released = released

	tasks, err := w.store.ClaimTasks(ctx, w.id, w.cfg.QueueBatchSize)
	if err != nil {
		return res, fmt.Errorf("claim tasks: %w", err)
	}
	res.Claimed = len(tasks)

	for i := range tasks {
		if ctx.Err() != nil {
			// Unfinished claims are released once their lease expires.
			break
		}
		switch w.runTask(ctx, &tasks[i]) {
		case "completed":
			res.Completed++
		case "retried":
			res.Retried++
		case "failed":
			res.Failed++
		case "lease_lost":
			res.LeaseLost++
		}
	}

	w.publishDepth(ctx)

	if res.Claimed > 0 || res.Released > 0 {
		logging.Ctx(ctx).Info().
			Str("worker_id", w.id).
			Int("claimed", res.Claimed).
			Int("completed", res.Completed).
			Int("retried", res.Retried).
			Int("failed", res.Failed).
			Int("lease_lost", res.LeaseLost).
			Int("released", res.Released).
			Dur("duration", time.Since(start)).
			Msg("Queue batch processed")
	}
	return res, nil
}

// runTask syncs one claimed task and records the outcome.
func (w *Worker) runTask(ctx context.Context, task *models.SyncTask) string {
	logger := logging.Ctx(ctx).With().
		Str("task_id", task.ID).
		Str("entity_type", task.EntityType).
		Str("identifier", task.Identifier()).
		Int("attempt", task.Attempts).
		Logger()

	req, err := RequestFromTask(task)
	if err == nil {
		_, err = w.syncer.Sync(ctx, req)
	}

	if err == nil {
		if cerr := w.store.CompleteTask(ctx, task.ID, w.id); cerr != nil {
			if errors.Is(cerr, database.ErrLeaseLost) {
				return w.leaseLost(logger)
			}
			logger.Error().Err(cerr).Msg("Failed to complete task")
		}
		metrics.RecordTaskOutcome("completed")
		return "completed"
	}

	retry, ferr := w.failTask(ctx, task, err)
	if errors.Is(ferr, database.ErrLeaseLost) {
		return w.leaseLost(logger)
	}
	if ferr != nil {
		logger.Error().Err(ferr).Msg("Failed to record task failure")
	}
	if retry {
		logger.Warn().Err(err).Msg("Sync task failed, will retry")
		metrics.RecordTaskOutcome("retried")
		return "retried"
	}
	logger.Error().Err(err).Msg("Sync task failed permanently")
	metrics.RecordTaskOutcome("failed")
	return "failed"
}

// failTask records the failure. Bad input never succeeds on retry, so
// validation errors fail the task outright.
func (w *Worker) failTask(ctx context.Context, task *models.SyncTask, cause error) (bool, error) {
	msg := cause.Error()
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	if apperr.IsKind(cause, apperr.KindValidation) {
		return false, w.store.AbandonTask(ctx, task.ID, w.id, msg)
	}
	return w.store.FailTask(ctx, task.ID, w.id, msg, w.cfg.RetryDelay)
}

// leaseLost handles a task whose lease expired mid-run and was re-claimed by
// another worker. The new owner records the outcome.
func (w *Worker) leaseLost(logger zerolog.Logger) string {
	logger.Warn().Str("worker_id", w.id).Msg("Task lease lost to another worker, outcome discarded")
	metrics.RecordTaskOutcome("lease_lost")
	return "lease_lost"
}

// RefreshStale queues stale artists and upcoming shows at low priority.
func (w *Worker) RefreshStale(ctx context.Context) (*EnqueueResult, error) {
	now := w.now()
	cutoff := now.Add(-FreshnessWindow)
	res := &EnqueueResult{}

	artists, err := w.store.ListStaleArtists(ctx, cutoff, w.cfg.StaleBatchSize)
	if err != nil {
		return nil, err
	}
	for i := range artists {
		res.Considered++
		if err := w.enqueueTask(ctx, res, database.EnqueueParams{
			EntityType:     EntityArtist.String(),
			EntityID:       artists[i].ID,
			TicketmasterID: artists[i].TicketmasterID,
			Priority:       models.PriorityLow,
			MaxAttempts:    w.cfg.MaxAttempts,
		}); err != nil {
			return res, err
		}
	}

	shows, err := w.store.ListStaleShows(ctx, now, cutoff, w.cfg.StaleBatchSize)
	if err != nil {
		return res, err
	}
	for i := range shows {
		res.Considered++
		if err := w.enqueueTask(ctx, res, database.EnqueueParams{
			EntityType:     EntityShow.String(),
			EntityID:       shows[i].ID,
			TicketmasterID: shows[i].TicketmasterID,
			Priority:       models.PriorityLow,
			MaxAttempts:    w.cfg.MaxAttempts,
		}); err != nil {
			return res, err
		}
	}

	w.publishDepth(ctx)
	logging.Ctx(ctx).Info().Int("considered", res.Considered).Int("enqueued", res.Enqueued).Msg("Stale entities queued")
	return res, nil
}

// SyncTrending queues a forced refresh of the most-voted upcoming shows
// and their setlists at high priority.
func (w *Worker) SyncTrending(ctx context.Context) (*EnqueueResult, error) {
	shows, err := w.store.ListTrendingShows(ctx, w.now(), w.cfg.TrendingSize)
	if err != nil {
		return nil, err
	}

	res := &EnqueueResult{}
	for i := range shows {
		res.Considered++
		for _, p := range []database.EnqueueParams{
			{EntityType: EntityShow.String(), EntityID: shows[i].ID, TicketmasterID: shows[i].TicketmasterID},
			{EntityType: EntitySetlist.String(), EntityID: shows[i].ID, TicketmasterID: shows[i].TicketmasterID},
		} {
			p.Priority = models.PriorityHigh
			p.MaxAttempts = w.cfg.MaxAttempts
			p.Options = Options{SkipDependencies: true, ForceRefresh: true}
			if err := w.enqueueTask(ctx, res, p); err != nil {
				return res, err
			}
		}
	}

	w.publishDepth(ctx)
	logging.Ctx(ctx).Info().Int("shows", res.Considered).Int("enqueued", res.Enqueued).Msg("Trending shows queued")
	return res, nil
}

func (w *Worker) enqueueTask(ctx context.Context, res *EnqueueResult, p database.EnqueueParams) error {
	_, created, err := w.store.EnqueueTask(ctx, p)
	if err != nil {
		return err
	}
	if created {
		res.Enqueued++
	} else {
		res.Merged++
	}
	return nil
}

// Cleanup releases expired leases and deletes completed tasks older than
// the retention period.
func (w *Worker) Cleanup(ctx context.Context) (*CleanupResult, error) {
	released, err := w.store.ReleaseExpired(ctx, w.cfg.LeaseTimeout)
	if err != nil {
		return nil, err
	}
	deleted, err := w.store.CleanupTasks(ctx, w.cfg.Retention)
	if err != nil {
		return nil, err
	}
	w.publishDepth(ctx)
	logging.Ctx(ctx).Info().Int("released", released).Int("deleted", deleted).Msg("Task queue cleaned up")
	return &CleanupResult{Released: released, Deleted: deleted}, nil
}

// Stats returns task counts by status.
func (w *Worker) Stats(ctx context.Context) (models.QueueStats, error) {
	return w.store.QueueStats(ctx)
}

func (w *Worker) publishDepth(ctx context.Context) {
	stats, err := w.store.QueueStats(ctx)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to read queue stats")
		return
	}
	metrics.SetQueueDepth(stats.Map())
}
