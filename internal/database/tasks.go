// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/theset/internal/models"
)

const taskColumns = `id, entity_type, entity_id, ticketmaster_id, spotify_id, options, priority,
	status, attempts, max_attempts, last_error, worker_id, scheduled_at, started_at,
	completed_at, created_at, updated_at`

// maxRetryDelay caps the exponential retry backoff of failed tasks.
const maxRetryDelay = time.Hour

// EnqueueParams describes a task to enqueue.
type EnqueueParams struct {
	EntityType     string
	EntityID       string
	TicketmasterID string
	SpotifyID      string
	Options        models.TaskOptions
	Priority       int
	MaxAttempts    int

	// Delay postpones the first attempt.
	Delay time.Duration
}

func (p *EnqueueParams) identifier() string {
	t := models.SyncTask{EntityID: p.EntityID, TicketmasterID: p.TicketmasterID, SpotifyID: p.SpotifyID}
	return t.Identifier()
}

func scanTask(row scanner) (*models.SyncTask, error) {
	var (
		t                         models.SyncTask
		entityID, tmID, spotifyID sql.NullString
		lastError, workerID       sql.NullString
		options, status           string
		scheduledAt, createdAt    sql.NullTime
		updatedAt                 sql.NullTime
		startedAt, completedAt    sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.EntityType, &entityID, &tmID, &spotifyID, &options, &t.Priority,
		&status, &t.Attempts, &t.MaxAttempts, &lastError, &workerID, &scheduledAt, &startedAt,
		&completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.EntityID = entityID.String
	t.TicketmasterID = tmID.String
	t.SpotifyID = spotifyID.String
	t.Status = models.TaskStatus(status)
	t.LastError = lastError.String
	t.WorkerID = workerID.String
	t.ScheduledAt = fromNullTime(scheduledAt)
	t.StartedAt = fromNullTimePtr(startedAt)
	t.CompletedAt = fromNullTimePtr(completedAt)
	t.CreatedAt = fromNullTime(createdAt)
	t.UpdatedAt = fromNullTime(updatedAt)
	if err := decodeJSON(options, &t.Options); err != nil {
		return nil, err
	}
	return &t, nil
}

// EnqueueTask inserts a pending task. When a pending or processing task
// already exists for the same entity type and identifier, no row is added;
// the existing pending task is raised to the higher priority. The boolean
// reports whether a new task was created.
func (db *DB) EnqueueTask(ctx context.Context, p EnqueueParams) (*models.SyncTask, bool, error) {
	ident := p.identifier()
	if p.EntityType == "" || ident == "" {
		return nil, false, fmt.Errorf("task requires an entity type and an identifier")
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Priority < models.PriorityLowest {
		p.Priority = models.PriorityLowest
	}
	if p.Priority > models.PriorityHighest {
		p.Priority = models.PriorityHighest
	}

	unlock := db.locks.lock("task:" + p.EntityType + ":" + ident)
	defer unlock()

	options, err := encodeJSON(p.Options)
	if err != nil {
		return nil, false, err
	}

	var (
		taskID  string
		created bool
	)
	err = db.withTx(ctx, "enqueue_task", func(tx *sql.Tx) error {
		now := db.now()
		var (
			existingID string
			priority   int
			status     string
		)
		err := tx.QueryRowContext(ctx, `SELECT id, priority, status FROM sync_tasks
			WHERE entity_type = $1 AND identifier = $2 AND status IN ('pending', 'processing')
			ORDER BY created_at ASC LIMIT 1`, p.EntityType, ident).Scan(&existingID, &priority, &status)
		switch {
		case err == nil:
			taskID, created = existingID, false
			if status == string(models.TaskPending) && p.Priority > priority {
				if _, err := tx.ExecContext(ctx,
					`UPDATE sync_tasks SET priority = $2, updated_at = $3 WHERE id = $1`,
					existingID, p.Priority, now); err != nil {
					return fmt.Errorf("failed to raise task priority: %w", err)
				}
			}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to look up pending task: %w", err)
		}

		taskID, created = uuid.NewString(), true
		_, err = tx.ExecContext(ctx, `INSERT INTO sync_tasks (id, entity_type, entity_id, ticketmaster_id,
				spotify_id, identifier, options, priority, status, attempts, max_attempts,
				scheduled_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', 0, $9, $10, $11, $11)`,
			taskID, p.EntityType, nullString(p.EntityID), nullString(p.TicketmasterID),
			nullString(p.SpotifyID), ident, options, p.Priority, p.MaxAttempts, now.Add(p.Delay), now)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	task, err := db.GetTask(ctx, taskID)
	if err != nil {
		return nil, false, err
	}
	return task, created, nil
}

// ClaimTasks moves up to n due pending tasks to processing for workerID,
// highest priority first, then oldest. Each claim increments attempts.
//
// Postgres uses FOR UPDATE SKIP LOCKED so concurrent workers never pick the
// same row. DuckDB has no row locks; claims are a single UPDATE ... RETURNING
// serialized by a process mutex, and the outer status guard makes a
// concurrent claim of the same row a no-op.
func (db *DB) ClaimTasks(ctx context.Context, workerID string, n int) ([]models.SyncTask, error) {
	if n <= 0 {
		return []models.SyncTask{}, nil
	}

	lockClause := ""
	if db.isPostgres() {
		lockClause = " FOR UPDATE SKIP LOCKED"
	} else {
		db.claimMu.Lock()
		defer db.claimMu.Unlock()
	}

	query := fmt.Sprintf(`UPDATE sync_tasks
		SET status = 'processing', worker_id = $1, attempts = attempts + 1, started_at = $2, updated_at = $2
		WHERE id IN (
			SELECT id FROM sync_tasks
			WHERE status = 'pending' AND scheduled_at <= $2
			ORDER BY priority DESC, created_at ASC
			LIMIT %d%s
		) AND status = 'pending'
		RETURNING %s`, n, lockClause, taskColumns)

	var tasks []models.SyncTask
	err := db.withTx(ctx, "claim_tasks", func(tx *sql.Tx) error {
		tasks = tasks[:0]
		rows, err := tx.QueryContext(ctx, query, workerID, db.now())
		if err != nil {
			return fmt.Errorf("failed to claim tasks: %w", err)
		}
		defer closeWithLog(rows, "task rows")
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("failed to scan task: %w", err)
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// RETURNING order is unspecified.
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	if tasks == nil {
		tasks = []models.SyncTask{}
	}
	return tasks, nil
}

// CompleteTask marks a task completed. Only the worker holding the claim may
// complete it; a worker whose lease was released and re-claimed elsewhere
// gets ErrLeaseLost.
func (db *DB) CompleteTask(ctx context.Context, id, workerID string) error {
	return db.withTx(ctx, "complete_task", func(tx *sql.Tx) error {
		now := db.now()
		res, err := tx.ExecContext(ctx, `UPDATE sync_tasks
			SET status = 'completed', completed_at = $2, updated_at = $2, last_error = NULL
			WHERE id = $1 AND status = 'processing' AND worker_id = $3`, id, now, workerID)
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		if err := requireRow(res, ErrTaskNotFound); err != nil {
			return leaseMiss(ctx, tx, id, err)
		}
		return nil
	})
}

// FailTask records a failed attempt by workerID. While attempts remain the
// task returns to pending, scheduled after baseDelay doubled per prior
// attempt (capped at an hour); otherwise it is marked failed. Reports whether
// it will retry.
func (db *DB) FailTask(ctx context.Context, id, workerID, lastError string, baseDelay time.Duration) (bool, error) {
	var retry bool
	err := db.withTx(ctx, "fail_task", func(tx *sql.Tx) error {
		now := db.now()
		var attempts, maxAttempts int
		err := tx.QueryRowContext(ctx,
			`SELECT attempts, max_attempts FROM sync_tasks
			WHERE id = $1 AND status = 'processing' AND worker_id = $2`,
			id, workerID).Scan(&attempts, &maxAttempts)
		if errors.Is(err, sql.ErrNoRows) {
			return leaseMiss(ctx, tx, id, ErrTaskNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read task: %w", err)
		}

		if attempts < maxAttempts {
			retry = true
			_, err = tx.ExecContext(ctx, `UPDATE sync_tasks
				SET status = 'pending', scheduled_at = $2, last_error = $3, worker_id = NULL,
					started_at = NULL, updated_at = $4
				WHERE id = $1 AND worker_id = $5`,
				id, now.Add(RetryBackoff(baseDelay, attempts)), lastError, now, workerID)
		} else {
			retry = false
			_, err = tx.ExecContext(ctx, `UPDATE sync_tasks
				SET status = 'failed', last_error = $2, completed_at = $3, updated_at = $3
				WHERE id = $1 AND worker_id = $4`, id, lastError, now, workerID)
		}
		if err != nil {
			return fmt.Errorf("failed to record task failure: %w", err)
		}
		return nil
	})
	return retry, err
}

// AbandonTask marks a task claimed by workerID failed without further retries.
func (db *DB) AbandonTask(ctx context.Context, id, workerID, lastError string) error {
	return db.withTx(ctx, "abandon_task", func(tx *sql.Tx) error {
		now := db.now()
		res, err := tx.ExecContext(ctx, `UPDATE sync_tasks
			SET status = 'failed', last_error = $2, completed_at = $3, updated_at = $3
			WHERE id = $1 AND status = 'processing' AND worker_id = $4`, id, lastError, now, workerID)
		if err != nil {
			return fmt.Errorf("failed to abandon task: %w", err)
		}
		if err := requireRow(res, ErrTaskNotFound); err != nil {
			return leaseMiss(ctx, tx, id, err)
		}
		return nil
	})
}

// leaseMiss refines a failed ownership match: a task still processing under
// another worker yields ErrLeaseLost, anything else returns notFound.
func leaseMiss(ctx context.Context, tx *sql.Tx, id string, notFound error) error {
	if !errors.Is(notFound, ErrTaskNotFound) {
		return notFound
	}
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM sync_tasks WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task status: %w", err)
	}
	if status == string(models.TaskProcessing) {
		return ErrLeaseLost
	}
	return ErrTaskNotFound
}

// RetryBackoff returns base * 2^(attempts-1), capped at one hour.
func RetryBackoff(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// ReleaseExpired returns tasks stuck in processing longer than lease to
// pending, or to failed when they have no attempts left.
func (db *DB) ReleaseExpired(ctx context.Context, lease time.Duration) (int, error) {
	var released int
	err := db.withTx(ctx, "release_expired", func(tx *sql.Tx) error {
		now := db.now()
		cutoff := now.Add(-lease)

		res, err := tx.ExecContext(ctx, `UPDATE sync_tasks
			SET status = 'failed', last_error = 'lease expired', completed_at = $2, updated_at = $2
			WHERE status = 'processing' AND started_at < $1 AND attempts >= max_attempts`, cutoff, now)
		if err != nil {
			return fmt.Errorf("failed to expire tasks: %w", err)
		}
		failed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read expired rows: %w", err)
		}

		res, err = tx.ExecContext(ctx, `UPDATE sync_tasks
			SET status = 'pending', worker_id = NULL, started_at = NULL, scheduled_at = $2, updated_at = $2
			WHERE status = 'processing' AND started_at < $1`, cutoff, now)
		if err != nil {
			return fmt.Errorf("failed to release tasks: %w", err)
		}
		pending, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read released rows: %w", err)
		}
		released = int(failed + pending)
		return nil
	})
	return released, err
}

// CleanupTasks deletes completed tasks last updated before now - retention.
func (db *DB) CleanupTasks(ctx context.Context, retention time.Duration) (int, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM sync_tasks WHERE status = 'completed' AND updated_at < $1`, db.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted rows: %w", err)
	}
	return int(n), nil
}

// GetTask returns a task by id.
func (db *DB) GetTask(ctx context.Context, id string) (*models.SyncTask, error) {
	t, err := scanTask(db.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM sync_tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks returns recent tasks, optionally filtered by status.
func (db *DB) ListTasks(ctx context.Context, status models.TaskStatus, limit int) ([]models.SyncTask, error) {
	limit = clampLimit(limit, 50, 500)
	query := `SELECT ` + taskColumns + ` FROM sync_tasks`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC` + limitClause(limit, 0)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer closeWithLog(rows, "task rows")

	tasks := []models.SyncTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// QueueStats counts tasks by status.
func (db *DB) QueueStats(ctx context.Context) (models.QueueStats, error) {
	var stats models.QueueStats
	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_tasks GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer closeWithLog(rows, "queue stats rows")

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("failed to scan queue stats: %w", err)
		}
		switch models.TaskStatus(status) {
		case models.TaskPending:
			stats.Pending = n
		case models.TaskProcessing:
			stats.Processing = n
		case models.TaskCompleted:
			stats.Completed = n
		case models.TaskFailed:
			stats.Failed = n
		}
	}
	return stats, rows.Err()
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
