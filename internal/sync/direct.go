// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"time"

	"github.com/zmb3/spotify"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/models"
)

// Catalog is the read side of the store the sync pipeline needs.
type Catalog interface {
	FindArtist(ctx context.Context, id, tmID, spotifyID string) (*models.Artist, error)
	GetArtist(ctx context.Context, id string) (*models.Artist, error)
	FindShow(ctx context.Context, id, tmID string) (*models.Show, error)
	FindVenue(ctx context.Context, id, tmID string) (*models.Venue, error)
}

// DirectSource builds bundles from the provider APIs. It is used when no
// hosted sync function is configured.
type DirectSource struct {
	catalog      Catalog
	ticketmaster *TicketmasterClient
	spotify      *SpotifyClient
	setlistFM    *SetlistFMClient
	now          func() time.Time

	// eventsLimit bounds the upcoming events fetched with an artist.
	eventsLimit int
}

// NewDirectSource returns a source reading catalog for local state. A nil now uses time.Now.
func NewDirectSource(catalog Catalog, tm *TicketmasterClient, sp *SpotifyClient, fm *SetlistFMClient, now func() time.Time) *DirectSource {
	if now == nil {
		now = time.Now
	}
	return &DirectSource{
		catalog:      catalog,
		ticketmaster: tm,
		spotify:      sp,
		setlistFM:    fm,
		now:          now,
		eventsLimit:  50,
	}
}

// Name implements Source.
func (d *DirectSource) Name() string {
	return config.SyncSourceDirect
}

// Fetch implements Source.
func (d *DirectSource) Fetch(ctx context.Context, req *Request) (*models.Bundle, error) {
	switch req.EntityType {
	case EntityArtist:
		return d.fetchArtist(ctx, req)
	case EntityShow:
		return d.fetchShow(ctx, req)
	case EntityVenue:
		return d.fetchVenue(ctx, req)
	case EntitySetlist:
		return d.fetchSetlist(ctx, req)
	case EntitySong:
		return d.fetchSongs(ctx, req)
	default:
		return nil, apperr.Validationf("Invalid entity type: %s", req.EntityType)
	}
}

func (d *DirectSource) fetchArtist(ctx context.Context, req *Request) (*models.Bundle, error) {
	local, err := d.lookupArtist(ctx, req.EntityID, req.TicketmasterID, req.SpotifyID)
	if err != nil {
		return nil, err
	}

	base := &models.BundleArtist{TicketmasterID: req.TicketmasterID, SpotifyID: req.SpotifyID}
	if local != nil {
		base.Name = local.Name
		if base.TicketmasterID == "" {
			base.TicketmasterID = local.TicketmasterID
		}
		if base.SpotifyID == "" {
			base.SpotifyID = local.SpotifyID
		}
	}
	if base.TicketmasterID == "" && base.SpotifyID == "" {
		return nil, apperr.NotFound("Artist not found")
	}

	if base.TicketmasterID != "" {
		if !d.ticketmaster.Configured() {
			return nil, ErrTicketmasterNotConfigured
		}
		att, err := d.ticketmaster.Attraction(ctx, base.TicketmasterID)
		if err != nil {
			return nil, err
		}
		fromTM := att.toBundleArtist()
		if base.SpotifyID != "" {
			fromTM.SpotifyID = base.SpotifyID
		}
		base = fromTM
	}

	artist, err := d.enrichArtist(ctx, base, base.TicketmasterID == "")
	if err != nil {
		return nil, err
	}
	bundle := &models.Bundle{Artist: artist}

	if !req.Options.SkipDependencies && artist.TicketmasterID != "" {
		events, err := d.ticketmaster.ArtistEvents(ctx, artist.TicketmasterID, d.eventsLimit)
		if err != nil {
			// The artist itself is still worth saving.
			logging.Ctx(ctx).Warn().Err(err).Str("artist", artist.TicketmasterID).Msg("Failed to fetch artist events")
		}
		for i := range events {
			bundle.Shows = append(bundle.Shows, events[i].toBundleShow(artist.TicketmasterID))
		}
	}
	return bundle, nil
}

// enrichArtist adds Spotify catalog data and top tracks to a. When required
// is false, Spotify failures are logged and a is returned as is.
func (d *DirectSource) enrichArtist(ctx context.Context, a *models.BundleArtist, required bool) (*models.BundleArtist, error) {
	if !d.spotify.Configured() {
		if required {
			return nil, ErrSpotifyNotConfigured
		}
		return a, nil
	}

	var (
		sp  *spotify.FullArtist
		err error
	)
	switch {
	case a.SpotifyID != "":
		sp, err = d.spotify.Artist(ctx, a.SpotifyID)
	case a.Name != "":
		sp, err = d.spotify.SearchArtist(ctx, a.Name)
	}
	if err != nil {
		if required {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Str("artist", a.Name).Msg("Spotify lookup failed, keeping Ticketmaster data")
		return a, nil
	}
	if sp == nil {
		if required {
			return nil, apperr.NotFound("Artist not found on Spotify")
		}
		return a, nil
	}
	mergeSpotifyArtist(a, sp)

	tracks, err := d.spotify.TopTracks(ctx, a.SpotifyID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("spotify_id", a.SpotifyID).Msg("Failed to fetch top tracks")
		return a, nil
	}
	a.StoredSongs = tracks
	return a, nil
}

func (d *DirectSource) fetchShow(ctx context.Context, req *Request) (*models.Bundle, error) {
	tmID := req.TicketmasterID
	if tmID == "" {
		local, err := d.catalog.FindShow(ctx, req.EntityID, "")
		if err != nil {
			return nil, err
		}
		tmID = local.TicketmasterID
	}
	if tmID == "" {
		return nil, apperr.NotFound("Show not found")
	}
	if !d.ticketmaster.Configured() {
		return nil, ErrTicketmasterNotConfigured
	}

	ev, err := d.ticketmaster.Event(ctx, tmID)
	if err != nil {
		return nil, err
	}
	return d.eventBundle(ctx, ev, !req.Options.SkipDependencies)
}

// setlistArtist is what setlist building needs to know about the performer.
type setlistArtist struct {
	Name        string
	SpotifyID   string
	StoredSongs []models.TrackSummary
}

// eventBundle turns a Ticketmaster event into a show bundle. A headliner
// already in the store is referenced, not re-synced; a new one is included
// (with Spotify data unless deps is false). With deps the setlist is built too.
func (d *DirectSource) eventBundle(ctx context.Context, ev *TMEvent, deps bool) (*models.Bundle, error) {
	head := ev.headliner()
	if head == nil {
		return nil, apperr.SyncFailure("Ticketmaster event has no artist", nil)
	}

	bundle := &models.Bundle{}
	show := ev.toBundleShow(head.ID)
	var performer setlistArtist

	existing, err := d.lookupArtist(ctx, "", head.ID, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		performer = setlistArtist{Name: existing.Name, SpotifyID: existing.SpotifyID, StoredSongs: existing.StoredSongs}
	} else {
		artist := head.toBundleArtist()
		if deps {
			artist, err = d.enrichArtist(ctx, artist, false)
			if err != nil {
				return nil, err
			}
		}
		bundle.Artist = artist
		performer = setlistArtist{Name: artist.Name, SpotifyID: artist.SpotifyID, StoredSongs: artist.StoredSongs}
	}
	bundle.Shows = []models.BundleShow{show}

	if deps {
		day := show.Date
		if t, err := time.Parse("2006-01-02", ev.Dates.Start.LocalDate); err == nil {
			day = t
		}
		sl := d.buildSetlist(ctx, show.TicketmasterID, day, performer)
		bundle.Setlists = []models.BundleSetlist{*sl}
	}
	return bundle, nil
}

// buildSetlist returns the performed setlist for past shows when setlist.fm
// has one, otherwise a prediction from the artist's top tracks.
func (d *DirectSource) buildSetlist(ctx context.Context, showTMID string, day time.Time, artist setlistArtist) *models.BundleSetlist {
	if !day.IsZero() && day.Before(d.now()) && d.setlistFM.Configured() && artist.Name != "" {
		fm, err := d.setlistFM.FindSetlist(ctx, artist.Name, day)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("show", showTMID).Msg("setlist.fm lookup failed, predicting setlist")
		}
		if fm != nil {
			return &models.BundleSetlist{
				ShowTicketmasterID: showTMID,
				Source:             models.SetlistSourceSetlistFM,
				SetlistFMID:        fm.ID,
				Songs:              fm.Songs(),
			}
		}
	}

	tracks := artist.StoredSongs
	if len(tracks) == 0 && artist.SpotifyID != "" && d.spotify.Configured() {
		var err error
		tracks, err = d.spotify.TopTracks(ctx, artist.SpotifyID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("spotify_id", artist.SpotifyID).Msg("Failed to fetch tracks for predicted setlist")
		}
	}

	songs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		songs = append(songs, t.Name)
	}
	return &models.BundleSetlist{
		ShowTicketmasterID: showTMID,
		Source:             models.SetlistSourcePredicted,
		Songs:              songs,
	}
}

func (d *DirectSource) fetchVenue(ctx context.Context, req *Request) (*models.Bundle, error) {
	tmID := req.TicketmasterID
	if tmID == "" {
		local, err := d.catalog.FindVenue(ctx, req.EntityID, "")
		if err != nil {
			return nil, err
		}
		tmID = local.TicketmasterID
	}
	if tmID == "" {
		return nil, apperr.NotFound("Venue not found")
	}
	if !d.ticketmaster.Configured() {
		return nil, ErrTicketmasterNotConfigured
	}

	v, err := d.ticketmaster.Venue(ctx, tmID)
	if err != nil {
		return nil, err
	}
	return &models.Bundle{Venue: v.toBundleVenue()}, nil
}

// fetchSetlist rebuilds a show's setlist. A show not yet stored is synced
// along with it.
func (d *DirectSource) fetchSetlist(ctx context.Context, req *Request) (*models.Bundle, error) {
	show, err := d.catalog.FindShow(ctx, req.EntityID, req.TicketmasterID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		if req.TicketmasterID == "" {
			return nil, err
		}
		showReq := *req
		showReq.Options.SkipDependencies = false
		return d.fetchShow(ctx, &showReq)
	}
	if err != nil {
		return nil, err
	}

	var performer setlistArtist
	artist, err := d.catalog.GetArtist(ctx, show.ArtistID)
	switch {
	case err == nil:
		performer = setlistArtist{Name: artist.Name, SpotifyID: artist.SpotifyID, StoredSongs: artist.StoredSongs}
	case !apperr.IsKind(err, apperr.KindNotFound):
		return nil, err
	}

	sl := d.buildSetlist(ctx, show.TicketmasterID, show.Date, performer)
	return &models.Bundle{Setlists: []models.BundleSetlist{*sl}}, nil
}

// fetchSongs refreshes an artist's Spotify catalog (stored songs).
func (d *DirectSource) fetchSongs(ctx context.Context, req *Request) (*models.Bundle, error) {
	if !d.spotify.Configured() {
		return nil, ErrSpotifyNotConfigured
	}

	local, err := d.lookupArtist(ctx, req.EntityID, req.TicketmasterID, req.SpotifyID)
	if err != nil {
		return nil, err
	}

	a := &models.BundleArtist{TicketmasterID: req.TicketmasterID, SpotifyID: req.SpotifyID}
	if local != nil {
		a.Name = local.Name
		if a.TicketmasterID == "" {
			a.TicketmasterID = local.TicketmasterID
		}
		if a.SpotifyID == "" {
			a.SpotifyID = local.SpotifyID
		}
	}
	if a.SpotifyID == "" && a.Name == "" {
		return nil, apperr.NotFound("Artist not found")
	}

	artist, err := d.enrichArtist(ctx, a, true)
	if err != nil {
		return nil, err
	}
	return &models.Bundle{Artist: artist}, nil
}

// lookupArtist returns nil, nil when the artist is not stored.
func (d *DirectSource) lookupArtist(ctx context.Context, id, tmID, spotifyID string) (*models.Artist, error) {
	if id == "" && tmID == "" && spotifyID == "" {
		return nil, nil
	}
	a, err := d.catalog.FindArtist(ctx, id, tmID, spotifyID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, nil
	}
	return a, err
}
