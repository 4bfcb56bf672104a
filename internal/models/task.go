// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// TaskStatus is the lifecycle state of a queued sync task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task priorities. Higher runs first.
const (
	PriorityLowest  = 0
	PriorityLow     = 1
	PriorityNormal  = 2
	PriorityHigh    = 3
	PriorityHighest = 4
)

// TaskOptions mirrors the sync request options.
type TaskOptions struct {
	SkipDependencies bool `json:"skipDependencies,omitempty"`
	ForceRefresh     bool `json:"forceRefresh,omitempty"`
}

// SyncTask is a durable request to sync one entity.
type SyncTask struct {
	ID             string      `json:"id"`
	EntityType     string      `json:"entityType"`
	EntityID       string      `json:"entityId,omitempty"`
	TicketmasterID string      `json:"ticketmasterId,omitempty"`
	SpotifyID      string      `json:"spotifyId,omitempty"`
	Options        TaskOptions `json:"options"`
	Priority       int         `json:"priority"`
	Status         TaskStatus  `json:"status"`
	Attempts       int         `json:"attempts"`
	MaxAttempts    int         `json:"maxAttempts"`
	LastError      string      `json:"lastError,omitempty"`
	WorkerID       string      `json:"workerId,omitempty"`
	ScheduledAt    time.Time   `json:"scheduledAt"`
	StartedAt      *time.Time  `json:"startedAt,omitempty"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Identifier returns the first non-empty identifier, used for de-duplication.
func (t *SyncTask) Identifier() string {
	switch {
	case t.EntityID != "":
		return t.EntityID
	case t.TicketmasterID != "":
		return t.TicketmasterID
	default:
		return t.SpotifyID
	}
}

// QueueStats counts tasks by status.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Map returns the counts keyed by status name.
func (q QueueStats) Map() map[string]int {
	return map[string]int{
		string(TaskPending):    q.Pending,
		string(TaskProcessing): q.Processing,
		string(TaskCompleted):  q.Completed,
		string(TaskFailed):     q.Failed,
	}
}
