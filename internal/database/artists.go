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

const artistColumns = `id, ticketmaster_id, spotify_id, name, image_url, genres,
	popularity, followers, stored_songs, last_updated, created_at`

// ListParams pages and filters a listing.
type ListParams struct {
	Query  string
	Limit  int
	Offset int
}

func scanArtist(row scanner) (*models.Artist, error) {
	var (
		a           models.Artist
		tmID, spID  sql.NullString
		imageURL    sql.NullString
		genres      string
		storedSongs string
		lastUpdated sql.NullTime
		createdAt   sql.NullTime
	)
	if err := row.Scan(&a.ID, &tmID, &spID, &a.Name, &imageURL, &genres,
		&a.Popularity, &a.Followers, &storedSongs, &lastUpdated, &createdAt); err != nil {
		return nil, err
	}
	a.TicketmasterID = tmID.String
	a.SpotifyID = spID.String
	a.ImageURL = imageURL.String
	a.LastUpdated = fromNullTime(lastUpdated)
	a.CreatedAt = fromNullTime(createdAt)

	a.Genres = []string{}
	if err := decodeJSON(genres, &a.Genres); err != nil {
		return nil, err
	}
	a.StoredSongs = []models.TrackSummary{}
	if err := decodeJSON(storedSongs, &a.StoredSongs); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) getArtistWhere(ctx context.Context, q queryer, column, value string) (*models.Artist, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE %s = $1`, artistColumns, column)
	a, err := scanArtist(q.QueryRowContext(ctx, query, value))
	recordQuery("select", "artists", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return a, nil
}

// GetArtist returns an artist by internal id.
func (db *DB) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	return db.getArtistWhere(ctx, db.conn, "id", id)
}

// GetArtistByTicketmasterID returns an artist by its Ticketmaster attraction id.
func (db *DB) GetArtistByTicketmasterID(ctx context.Context, tmID string) (*models.Artist, error) {
	return db.getArtistWhere(ctx, db.conn, "ticketmaster_id", tmID)
}

// GetArtistBySpotifyID returns an artist by its Spotify id.
func (db *DB) GetArtistBySpotifyID(ctx context.Context, spotifyID string) (*models.Artist, error) {
	return db.getArtistWhere(ctx, db.conn, "spotify_id", spotifyID)
}

// FindArtist resolves an artist by the first identifier that matches, in the
// order internal id, Ticketmaster id, Spotify id.
func (db *DB) FindArtist(ctx context.Context, id, tmID, spotifyID string) (*models.Artist, error) {
	lookups := []struct{ column, value string }{
		{"id", id},
		{"ticketmaster_id", tmID},
		{"spotify_id", spotifyID},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		a, err := db.getArtistWhere(ctx, db.conn, l.column, l.value)
		if errors.Is(err, ErrArtistNotFound) {
			continue
		}
		return a, err
	}
	return nil, ErrArtistNotFound
}

// ListArtists returns artists ordered by popularity, optionally filtered by name.
func (db *DB) ListArtists(ctx context.Context, p ListParams) ([]models.Artist, error) {
	limit := clampLimit(p.Limit, 20, 100)
	offset := clampOffset(p.Offset)

	query := `SELECT ` + artistColumns + ` FROM artists`
	var args []interface{}
	if p.Query != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+p.Query+"%")
	}
	query += ` ORDER BY popularity DESC, name ASC` + limitClause(limit, offset)

	return db.queryArtists(ctx, "list", query, args...)
}

// ListStaleArtists returns artists whose last_updated is before cutoff or unset.
func (db *DB) ListStaleArtists(ctx context.Context, cutoff time.Time, limit int) ([]models.Artist, error) {
	limit = clampLimit(limit, 50, 500)
	query := `SELECT ` + artistColumns + ` FROM artists
		WHERE last_updated IS NULL OR last_updated < $1
		ORDER BY popularity DESC` + limitClause(limit, 0)
	return db.queryArtists(ctx, "list_stale", query, cutoff.UTC())
}

func (db *DB) queryArtists(ctx context.Context, op, query string, args ...interface{}) ([]models.Artist, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		recordQuery(op, "artists", start, err)
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer closeWithLog(rows, "artist rows")

	artists := []models.Artist{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, *a)
	}
	err = rows.Err()
	recordQuery(op, "artists", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate artists: %w", err)
	}
	return artists, nil
}

// upsertArtistTx looks the artist up by Ticketmaster id, then Spotify id,
// and updates it; otherwise inserts a new row. Returns the internal id.
func upsertArtistTx(ctx context.Context, tx *sql.Tx, a *models.BundleArtist, now time.Time) (string, bool, error) {
	genres, err := encodeJSON(a.Genres)
	if err != nil {
		return "", false, err
	}
	songs, err := encodeJSON(a.StoredSongs)
	if err != nil {
		return "", false, err
	}

	id, existingTM, err := findArtistIDTx(ctx, tx, a.TicketmasterID, a.SpotifyID)
	if err != nil {
		return "", false, err
	}

	if id != "" {
		// stored_songs, genres, image and zero counters are kept when the
		// source sent none.
		_, err = tx.ExecContext(ctx, `UPDATE artists SET
				spotify_id = COALESCE($2, spotify_id),
				name = $3,
				image_url = COALESCE($4, image_url),
				genres = CASE WHEN $5 = '[]' THEN genres ELSE $5 END,
				popularity = CASE WHEN $6 > 0 THEN $6 ELSE popularity END,
				followers = CASE WHEN $7 > 0 THEN $7 ELSE followers END,
				stored_songs = CASE WHEN $8 = '[]' THEN stored_songs ELSE $8 END,
				last_updated = $9
			WHERE id = $1`,
			id, nullString(a.SpotifyID), a.Name, nullString(a.ImageURL), genres,
			a.Popularity, a.Followers, songs, now)
		if err != nil {
			return "", false, fmt.Errorf("failed to update artist: %w", err)
		}
		if existingTM == "" && a.TicketmasterID != "" {
			if _, err := tx.ExecContext(ctx, `UPDATE artists SET ticketmaster_id = $2 WHERE id = $1`,
				id, a.TicketmasterID); err != nil {
				return "", false, fmt.Errorf("failed to set artist ticketmaster id: %w", err)
			}
		}
		return id, false, nil
	}

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx, `INSERT INTO artists (`+artistColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, nullString(a.TicketmasterID), nullString(a.SpotifyID), a.Name, nullString(a.ImageURL),
		genres, a.Popularity, a.Followers, songs, now, now)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert artist: %w", err)
	}
	return id, true, nil
}

func findArtistIDTx(ctx context.Context, tx *sql.Tx, tmID, spotifyID string) (id, existingTM string, err error) {
	lookups := []struct{ column, value string }{
		{"ticketmaster_id", tmID},
		{"spotify_id", spotifyID},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		var tm sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT id, ticketmaster_id FROM artists WHERE `+l.column+` = $1 LIMIT 1`, l.value).Scan(&id, &tm)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to look up artist: %w", err)
		}
		return id, tm.String, nil
	}
	return "", "", nil
}
