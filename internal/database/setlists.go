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
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/theset/internal/models"
)

const setlistColumns = `id, show_id, artist_id, source, setlistfm_id, updated_at`

const songColumns = `id, setlist_id, name, position, vote_count, created_at`

func scanSetlist(row scanner) (*models.Setlist, error) {
	var (
		sl          models.Setlist
		setlistfmID sql.NullString
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&sl.ID, &sl.ShowID, &sl.ArtistID, &sl.Source, &setlistfmID, &updatedAt); err != nil {
		return nil, err
	}
	sl.SetlistFMID = setlistfmID.String
	sl.UpdatedAt = fromNullTime(updatedAt)
	sl.Songs = []models.SetlistSong{}
	return &sl, nil
}

func scanSong(row scanner) (*models.SetlistSong, error) {
	var (
		s         models.SetlistSong
		createdAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.SetlistID, &s.Name, &s.Position, &s.VoteCount, &createdAt); err != nil {
		return nil, err
	}
	s.CreatedAt = fromNullTime(createdAt)
	return &s, nil
}

func (db *DB) getSetlistWhere(ctx context.Context, column, value string) (*models.Setlist, error) {
	start := time.Now()
	sl, err := scanSetlist(db.conn.QueryRowContext(ctx,
		`SELECT `+setlistColumns+` FROM setlists WHERE `+column+` = $1`, value))
	recordQuery("select", "setlists", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSetlistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setlist: %w", err)
	}

	songs, err := db.ListSongs(ctx, sl.ID)
	if err != nil {
		return nil, err
	}
	sl.Songs = songs
	return sl, nil
}

// GetSetlist returns a setlist with its songs by internal id.
func (db *DB) GetSetlist(ctx context.Context, id string) (*models.Setlist, error) {
	return db.getSetlistWhere(ctx, "id", id)
}

// GetSetlistByShow returns the setlist of a show with its songs.
func (db *DB) GetSetlistByShow(ctx context.Context, showID string) (*models.Setlist, error) {
	return db.getSetlistWhere(ctx, "show_id", showID)
}

// ListSongs returns the songs of a setlist in position order.
func (db *DB) ListSongs(ctx context.Context, setlistID string) ([]models.SetlistSong, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+songColumns+` FROM setlist_songs WHERE setlist_id = $1 ORDER BY position ASC, name ASC`,
		setlistID)
	if err != nil {
		recordQuery("list", "setlist_songs", start, err)
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer closeWithLog(rows, "song rows")

	songs := []models.SetlistSong{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *s)
	}
	err = rows.Err()
	recordQuery("list", "setlist_songs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}
	return songs, nil
}

// GetSong returns a single setlist song.
func (db *DB) GetSong(ctx context.Context, songID string) (*models.SetlistSong, error) {
	start := time.Now()
	s, err := scanSong(db.conn.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM setlist_songs WHERE id = $1`, songID))
	recordQuery("select", "setlist_songs", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return s, nil
}

func upsertSetlistTx(ctx context.Context, tx *sql.Tx, showID, artistID, source, setlistfmID string, now time.Time) (string, bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM setlists WHERE show_id = $1`, showID).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE setlists SET
				artist_id = $2, source = $3, setlistfm_id = COALESCE($4, setlistfm_id), updated_at = $5
			WHERE id = $1`,
			id, artistID, source, nullString(setlistfmID), now)
		if err != nil {
			return "", false, fmt.Errorf("failed to update setlist: %w", err)
		}
		return id, false, nil
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `INSERT INTO setlists (`+setlistColumns+`, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, showID, artistID, source, nullString(setlistfmID), now, now)
		if err != nil {
			return "", false, fmt.Errorf("failed to insert setlist: %w", err)
		}
		return id, true, nil
	default:
		return "", false, fmt.Errorf("failed to look up setlist: %w", err)
	}
}

// upsertSongTx writes one song by (setlist_id, name). vote_count is never
// touched here: new rows start at zero and existing counts are preserved.
func upsertSongTx(ctx context.Context, tx *sql.Tx, setlistID, name string, position int, now time.Time) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM setlist_songs WHERE setlist_id = $1 AND name = $2`, setlistID, name).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE setlist_songs SET position = $2 WHERE id = $1 AND position <> $2`, id, position); err != nil {
			return false, fmt.Errorf("failed to update song: %w", err)
		}
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `INSERT INTO setlist_songs (`+songColumns+`)
			VALUES ($1, $2, $3, $4, 0, $5)`,
			uuid.NewString(), setlistID, name, position, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert song: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("failed to look up song: %w", err)
	}
}
