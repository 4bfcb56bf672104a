// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package database

import (
	"context"
	"fmt"
)

// The schema is shared by DuckDB and Postgres. Both accept the same DDL as
// long as it sticks to TEXT, INTEGER and TIMESTAMP columns and avoids
// foreign keys (DuckDB rejects updates of referenced rows). Ids are UUID
// strings generated in Go; JSON-valued columns (genres, stored_songs,
// options) are TEXT. Timestamps are always written in UTC.
//
// Columns rewritten on every sync have no secondary index: DuckDB turns an
// update of an indexed column into a delete and insert.
var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id TEXT PRIMARY KEY,
		ticketmaster_id TEXT UNIQUE,
		spotify_id TEXT,
		name TEXT NOT NULL,
		image_url TEXT,
		genres TEXT NOT NULL DEFAULT '[]',
		popularity INTEGER NOT NULL DEFAULT 0,
		followers INTEGER NOT NULL DEFAULT 0,
		stored_songs TEXT NOT NULL DEFAULT '[]',
		last_updated TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS venues (
		id TEXT PRIMARY KEY,
		ticketmaster_id TEXT UNIQUE,
		name TEXT NOT NULL,
		city TEXT,
		state TEXT,
		country TEXT,
		address TEXT,
		updated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shows (
		id TEXT PRIMARY KEY,
		ticketmaster_id TEXT UNIQUE,
		name TEXT NOT NULL,
		date TIMESTAMP,
		ticket_url TEXT,
		status TEXT,
		artist_id TEXT NOT NULL,
		venue_id TEXT,
		popularity INTEGER NOT NULL DEFAULT 0,
		genre_ids TEXT NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS setlists (
		id TEXT PRIMARY KEY,
		show_id TEXT NOT NULL UNIQUE,
		artist_id TEXT NOT NULL,
		source TEXT NOT NULL,
		setlistfm_id TEXT,
		updated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS setlist_songs (
		id TEXT PRIMARY KEY,
		setlist_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		vote_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (setlist_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		anonymous_key TEXT,
		setlist_song_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, setlist_song_id),
		UNIQUE (anonymous_key, setlist_song_id),
		CHECK (user_id IS NOT NULL OR anonymous_key IS NOT NULL)
	)`,

	`CREATE TABLE IF NOT EXISTS sync_tasks (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		ticketmaster_id TEXT,
		spotify_id TEXT,
		identifier TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '{}',
		priority INTEGER NOT NULL DEFAULT 2,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 3,
		last_error TEXT,
		worker_id TEXT,
		scheduled_at TIMESTAMP NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_votes_song ON votes (setlist_song_id)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_anonymous ON votes (anonymous_key)`,
}

// createTables creates every table and index if missing.
func (db *DB) createTables(ctx context.Context) error {
	for _, query := range tableQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
