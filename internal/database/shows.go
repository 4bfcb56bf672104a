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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/theset/internal/models"
)

const showColumns = `s.id, s.ticketmaster_id, s.name, s.date, s.ticket_url, s.status,
	s.artist_id, s.venue_id, s.popularity, s.genre_ids, s.updated_at`

// ShowFilter selects shows for listing.
type ShowFilter struct {
	ArtistID string
	VenueID  string

	// From keeps shows dated at or after From. Zero means no lower bound.
	From time.Time

	Limit  int
	Offset int
}

func scanShow(row scanner) (*models.Show, error) {
	var (
		s                       models.Show
		tmID, ticketURL, status sql.NullString
		venueID                 sql.NullString
		genreIDs                string
		date, updatedAt         sql.NullTime
	)
	if err := row.Scan(&s.ID, &tmID, &s.Name, &date, &ticketURL, &status,
		&s.ArtistID, &venueID, &s.Popularity, &genreIDs, &updatedAt); err != nil {
		return nil, err
	}
	s.TicketmasterID = tmID.String
	s.TicketURL = ticketURL.String
	s.Status = status.String
	s.VenueID = venueID.String
	s.Date = fromNullTime(date)
	s.UpdatedAt = fromNullTime(updatedAt)
	s.GenreIDs = []string{}
	if err := decodeJSON(genreIDs, &s.GenreIDs); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) getShowWhere(ctx context.Context, column, value string) (*models.Show, error) {
	start := time.Now()
	s, err := scanShow(db.conn.QueryRowContext(ctx,
		`SELECT `+showColumns+` FROM shows s WHERE s.`+column+` = $1`, value))
	recordQuery("select", "shows", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return s, nil
}

// GetShow returns a show by internal id without relations.
func (db *DB) GetShow(ctx context.Context, id string) (*models.Show, error) {
	return db.getShowWhere(ctx, "id", id)
}

// GetShowByTicketmasterID returns a show by its Ticketmaster event id.
func (db *DB) GetShowByTicketmasterID(ctx context.Context, tmID string) (*models.Show, error) {
	return db.getShowWhere(ctx, "ticketmaster_id", tmID)
}

// FindShow resolves a show by internal id, then Ticketmaster id.
func (db *DB) FindShow(ctx context.Context, id, tmID string) (*models.Show, error) {
	if id != "" {
		s, err := db.GetShow(ctx, id)
		if !errors.Is(err, ErrShowNotFound) {
			return s, err
		}
	}
	if tmID != "" {
		return db.GetShowByTicketmasterID(ctx, tmID)
	}
	return nil, ErrShowNotFound
}

// GetShowDetail returns a show with its artist and venue attached.
func (db *DB) GetShowDetail(ctx context.Context, id string) (*models.Show, error) {
	s, err := db.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.attachRelations(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) attachRelations(ctx context.Context, s *models.Show) error {
	artist, err := db.GetArtist(ctx, s.ArtistID)
	switch {
	case err == nil:
		s.Artist = artist
	case !errors.Is(err, ErrArtistNotFound):
		return err
	}
	if s.VenueID == "" {
		return nil
	}
	venue, err := db.GetVenue(ctx, s.VenueID)
	switch {
	case err == nil:
		s.Venue = venue
	case !errors.Is(err, ErrVenueNotFound):
		return err
	}
	return nil
}

// ListShows returns shows ordered by date.
func (db *DB) ListShows(ctx context.Context, f ShowFilter) ([]models.Show, error) {
	limit := clampLimit(f.Limit, 20, 100)
	offset := clampOffset(f.Offset)

	var (
		where []string
		args  []interface{}
	)
	if f.ArtistID != "" {
		args = append(args, f.ArtistID)
		where = append(where, fmt.Sprintf("s.artist_id = $%d", len(args)))
	}
	if f.VenueID != "" {
		args = append(args, f.VenueID)
		where = append(where, fmt.Sprintf("s.venue_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		where = append(where, fmt.Sprintf("s.date >= $%d", len(args)))
	}

	query := `SELECT ` + showColumns + ` FROM shows s`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.date ASC, s.name ASC` + limitClause(limit, offset)

	shows, err := db.queryShows(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	for i := range shows {
		if err := db.attachRelations(ctx, &shows[i]); err != nil {
			return nil, err
		}
	}
	return shows, nil
}

// ListStaleShows returns upcoming shows not refreshed since cutoff.
func (db *DB) ListStaleShows(ctx context.Context, now, cutoff time.Time, limit int) ([]models.Show, error) {
	limit = clampLimit(limit, 50, 500)
	query := `SELECT ` + showColumns + ` FROM shows s
		WHERE s.date >= $1 AND (s.updated_at IS NULL OR s.updated_at < $2)
		ORDER BY s.date ASC` + limitClause(limit, 0)
	return db.queryShows(ctx, "list_stale", query, now.UTC(), cutoff.UTC())
}

// ListTrendingShows returns upcoming shows ranked by total votes, then popularity.
func (db *DB) ListTrendingShows(ctx context.Context, now time.Time, limit int) ([]models.Show, error) {
	limit = clampLimit(limit, 20, 200)
	query := `SELECT ` + showColumns + ` FROM shows s
		LEFT JOIN (
			SELECT sl.show_id, SUM(ss.vote_count) AS votes
			FROM setlists sl
			JOIN setlist_songs ss ON ss.setlist_id = sl.id
			GROUP BY sl.show_id
		) v ON v.show_id = s.id
		WHERE s.date >= $1
		ORDER BY COALESCE(v.votes, 0) DESC, s.popularity DESC, s.date ASC` + limitClause(limit, 0)
	return db.queryShows(ctx, "list_trending", query, now.UTC())
}

func (db *DB) queryShows(ctx context.Context, op, query string, args ...interface{}) ([]models.Show, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		recordQuery(op, "shows", start, err)
		return nil, fmt.Errorf("failed to query shows: %w", err)
	}
	defer closeWithLog(rows, "show rows")

	shows := []models.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		shows = append(shows, *s)
	}
	err = rows.Err()
	recordQuery(op, "shows", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate shows: %w", err)
	}
	return shows, nil
}

func upsertShowTx(ctx context.Context, tx *sql.Tx, s *models.BundleShow, artistID, venueID string, now time.Time) (string, bool, error) {
	genreIDs, err := encodeJSON(s.GenreIDs)
	if err != nil {
		return "", false, err
	}

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE ticketmaster_id = $1`, s.TicketmasterID).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE shows SET
				name = $2, date = $3, ticket_url = $4, status = $5, artist_id = $6,
				venue_id = COALESCE($7, venue_id), popularity = $8, genre_ids = $9, updated_at = $10
			WHERE id = $1`,
			id, s.Name, nullTime(s.Date), nullString(s.TicketURL), nullString(s.Status), artistID,
			nullString(venueID), s.Popularity, genreIDs, now)
		if err != nil {
			return "", false, fmt.Errorf("failed to update show: %w", err)
		}
		return id, false, nil
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `INSERT INTO shows (id, ticketmaster_id, name, date, ticket_url, status,
				artist_id, venue_id, popularity, genre_ids, updated_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			id, s.TicketmasterID, s.Name, nullTime(s.Date), nullString(s.TicketURL), nullString(s.Status),
			artistID, nullString(venueID), s.Popularity, genreIDs, now, now)
		if err != nil {
			return "", false, fmt.Errorf("failed to insert show: %w", err)
		}
		return id, true, nil
	default:
		return "", false, fmt.Errorf("failed to look up show: %w", err)
	}
}
