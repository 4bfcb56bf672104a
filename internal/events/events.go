// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package events

import (
	"time"

	"github.com/tomtom215/theset/internal/models"
)

// Topics.
const (
	TopicEntitySynced = "entity.synced"
	TopicVoteUpdated  = "vote.updated"
)

// Vote actions.
const (
	VoteActionCast    = "cast"
	VoteActionRemoved = "removed"
)

// EntitySynced is published after a sync bundle has been reconciled.
type EntitySynced struct {
	EntityType string                        `json:"entityType"`
	EntityID   string                        `json:"entityId"`
	Source     string                        `json:"source"`
	Tables     map[string]models.TableCounts `json:"tables,omitempty"`
	ShowIDs    []string                      `json:"showIds,omitempty"`
	SyncedAt   time.Time                     `json:"syncedAt"`
}

// VoteUpdated carries the new vote count of one setlist song.
type VoteUpdated struct {
	ShowID    string    `json:"showId"`
	SongID    string    `json:"songId"`
	VoteCount int       `json:"voteCount"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}
