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

const venueColumns = `id, ticketmaster_id, name, city, state, country, address, updated_at`

func scanVenue(row scanner) (*models.Venue, error) {
	var (
		v                 models.Venue
		tmID, city, state sql.NullString
		country, address  sql.NullString
		updatedAt         sql.NullTime
	)
	if err := row.Scan(&v.ID, &tmID, &v.Name, &city, &state, &country, &address, &updatedAt); err != nil {
		return nil, err
	}
	v.TicketmasterID = tmID.String
	v.City = city.String
	v.State = state.String
	v.Country = country.String
	v.Address = address.String
	v.UpdatedAt = fromNullTime(updatedAt)
	return &v, nil
}

func (db *DB) getVenueWhere(ctx context.Context, column, value string) (*models.Venue, error) {
	start := time.Now()
	v, err := scanVenue(db.conn.QueryRowContext(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE `+column+` = $1`, value))
	recordQuery("select", "venues", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return v, nil
}

// GetVenue returns a venue by internal id.
func (db *DB) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	return db.getVenueWhere(ctx, "id", id)
}

// GetVenueByTicketmasterID returns a venue by its Ticketmaster id.
func (db *DB) GetVenueByTicketmasterID(ctx context.Context, tmID string) (*models.Venue, error) {
	return db.getVenueWhere(ctx, "ticketmaster_id", tmID)
}

// FindVenue resolves a venue by internal id, then Ticketmaster id.
func (db *DB) FindVenue(ctx context.Context, id, tmID string) (*models.Venue, error) {
	if id != "" {
		v, err := db.GetVenue(ctx, id)
		if !errors.Is(err, ErrVenueNotFound) {
			return v, err
		}
	}
	if tmID != "" {
		return db.GetVenueByTicketmasterID(ctx, tmID)
	}
	return nil, ErrVenueNotFound
}

func upsertVenueTx(ctx context.Context, tx *sql.Tx, v *models.BundleVenue, now time.Time) (string, bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM venues WHERE ticketmaster_id = $1`, v.TicketmasterID).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE venues SET
				name = $2, city = $3, state = $4, country = $5, address = $6, updated_at = $7
			WHERE id = $1`,
			id, v.Name, nullString(v.City), nullString(v.State), nullString(v.Country), nullString(v.Address), now)
		if err != nil {
			return "", false, fmt.Errorf("failed to update venue: %w", err)
		}
		return id, false, nil
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `INSERT INTO venues (`+venueColumns+`, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, v.TicketmasterID, v.Name, nullString(v.City), nullString(v.State),
			nullString(v.Country), nullString(v.Address), now, now)
		if err != nil {
			return "", false, fmt.Errorf("failed to insert venue: %w", err)
		}
		return id, true, nil
	default:
		return "", false, fmt.Errorf("failed to look up venue: %w", err)
	}
}
