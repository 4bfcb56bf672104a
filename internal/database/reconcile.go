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

	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

// Table names reported in reconcile results.
const (
	TableArtists      = "artists"
	TableVenues       = "venues"
	TableShows        = "shows"
	TableSetlists     = "setlists"
	TableSetlistSongs = "setlist_songs"
)

// ApplyBundle reconciles a sync bundle into the store by natural key, in
// dependency order artist, venues, shows, setlists, songs. All writes share
// one transaction: on any error nothing from the bundle is persisted.
func (db *DB) ApplyBundle(ctx context.Context, b *models.Bundle) (*models.ReconcileResult, error) {
	if b.Empty() {
		return models.NewReconcileResult(), nil
	}
	if err := checkBundle(b); err != nil {
		return nil, err
	}

	db.reconcileMu.Lock()
	defer db.reconcileMu.Unlock()

	var result *models.ReconcileResult
	apply := func() error {
		return db.withTx(ctx, "apply_bundle", func(tx *sql.Tx) error {
			result = models.NewReconcileResult()
			return reconcileTx(ctx, tx, b, db.now(), result)
		})
	}

	err := apply()
	if isUniqueViolation(err) {
		// Another instance inserted the same natural key first; the
		// lookups now find it and the bundle becomes an update.
		logging.Debug().Err(err).Msg("Bundle hit a unique constraint, retrying once")
		err = apply()
	}
	if err != nil {
		return nil, err
	}

	for table, c := range result.Tables {
		metrics.RecordReconciled(table, c.Created, c.Updated)
	}
	return result, nil
}

func checkBundle(b *models.Bundle) error {
	if b.Artist != nil && b.Artist.TicketmasterID == "" && b.Artist.SpotifyID == "" {
		return fmt.Errorf("bundle artist %q has no natural key", b.Artist.Name)
	}
	if b.Venue != nil && b.Venue.TicketmasterID == "" {
		return fmt.Errorf("bundle venue %q has no ticketmaster id", b.Venue.Name)
	}
	for i := range b.Shows {
		s := &b.Shows[i]
		if s.TicketmasterID == "" {
			return fmt.Errorf("bundle show %q has no ticketmaster id", s.Name)
		}
		if s.Venue != nil && s.Venue.TicketmasterID == "" {
			return fmt.Errorf("venue of show %s has no ticketmaster id", s.TicketmasterID)
		}
	}
	for i := range b.Setlists {
		if b.Setlists[i].ShowTicketmasterID == "" {
			return fmt.Errorf("bundle setlist %d has no show ticketmaster id", i)
		}
	}
	return nil
}

func reconcileTx(ctx context.Context, tx *sql.Tx, b *models.Bundle, now time.Time, r *models.ReconcileResult) error {
	if b.Artist != nil {
		id, created, err := upsertArtistTx(ctx, tx, b.Artist, now)
		if err != nil {
			return err
		}
		r.ArtistID = id
		r.Count(TableArtists, created)
	}

	venues := make([]*models.BundleVenue, 0, len(b.Shows)+1)
	if b.Venue != nil {
		venues = append(venues, b.Venue)
	}
	for i := range b.Shows {
		if b.Shows[i].Venue != nil {
			venues = append(venues, b.Shows[i].Venue)
		}
	}
	for _, v := range venues {
		if _, seen := r.VenueIDs[v.TicketmasterID]; seen {
			continue
		}
		id, created, err := upsertVenueTx(ctx, tx, v, now)
		if err != nil {
			return err
		}
		r.VenueIDs[v.TicketmasterID] = id
		r.Count(TableVenues, created)
	}

	for i := range b.Shows {
		s := &b.Shows[i]
		if _, seen := r.ShowIDs[s.TicketmasterID]; seen {
			continue
		}
		artistID, err := resolveShowArtistTx(ctx, tx, b, s, r.ArtistID)
		if err != nil {
			return err
		}
		venueID := ""
		if s.Venue != nil {
			venueID = r.VenueIDs[s.Venue.TicketmasterID]
		}
		id, created, err := upsertShowTx(ctx, tx, s, artistID, venueID, now)
		if err != nil {
			return err
		}
		r.ShowIDs[s.TicketmasterID] = id
		r.Count(TableShows, created)
	}

	for i := range b.Setlists {
		if err := reconcileSetlistTx(ctx, tx, &b.Setlists[i], now, r); err != nil {
			return err
		}
	}
	return nil
}

func resolveShowArtistTx(ctx context.Context, tx *sql.Tx, b *models.Bundle, s *models.BundleShow, bundleArtistID string) (string, error) {
	tmID := s.ArtistTicketmasterID
	if tmID == "" || (b.Artist != nil && b.Artist.TicketmasterID == tmID) {
		if bundleArtistID != "" {
			return bundleArtistID, nil
		}
	}
	if tmID != "" {
		id, _, err := findArtistIDTx(ctx, tx, tmID, "")
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("show %s: %w", s.TicketmasterID, ErrUnresolvedArtist)
}

func reconcileSetlistTx(ctx context.Context, tx *sql.Tx, sl *models.BundleSetlist, now time.Time, r *models.ReconcileResult) error {
	var showID, artistID string
	err := tx.QueryRowContext(ctx, `SELECT id, artist_id FROM shows WHERE ticketmaster_id = $1`,
		sl.ShowTicketmasterID).Scan(&showID, &artistID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("setlist references unknown show %s: %w", sl.ShowTicketmasterID, ErrShowNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up setlist show: %w", err)
	}

	source := sl.Source
	if source == "" {
		source = models.SetlistSourceRemote
	}
	setlistID, created, err := upsertSetlistTx(ctx, tx, showID, artistID, source, sl.SetlistFMID, now)
	if err != nil {
		return err
	}
	r.Setlists[showID] = setlistID
	r.Count(TableSetlists, created)

	// Songs missing from this bundle are kept; they may already carry votes.
	seen := make(map[string]struct{}, len(sl.Songs))
	position := 0
	for _, name := range sl.Songs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		position++
		songCreated, err := upsertSongTx(ctx, tx, setlistID, name, position, now)
		if err != nil {
			return err
		}
		r.Count(TableSetlistSongs, songCreated)
	}
	return nil
}
