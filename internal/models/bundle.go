// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Bundle is the data returned by a sync source, in the shape the remote
// sync function emits under "data". Entities reference each other by
// Ticketmaster id; internal ids are assigned by the reconciler.
type Bundle struct {
	Artist   *BundleArtist   `json:"artist,omitempty"`
	Venue    *BundleVenue    `json:"venue,omitempty"`
	Shows    []BundleShow    `json:"shows,omitempty"`
	Setlists []BundleSetlist `json:"setlists,omitempty"`
}

// BundleArtist is an artist as reported by a source.
type BundleArtist struct {
	TicketmasterID string         `json:"ticketmasterId,omitempty"`
	SpotifyID      string         `json:"spotifyId,omitempty"`
	Name           string         `json:"name"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Genres         []string       `json:"genres,omitempty"`
	Popularity     int            `json:"popularity,omitempty"`
	Followers      int            `json:"followers,omitempty"`
	StoredSongs    []TrackSummary `json:"storedSongs,omitempty"`
}

// BundleVenue is a venue as reported by a source.
type BundleVenue struct {
	TicketmasterID string `json:"ticketmasterId"`
	Name           string `json:"name"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Country        string `json:"country,omitempty"`
	Address        string `json:"address,omitempty"`
}

// BundleShow is a show with its venue nested.
type BundleShow struct {
	TicketmasterID string    `json:"ticketmasterId"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	TicketURL      string    `json:"ticketUrl,omitempty"`
	Status         string    `json:"status,omitempty"`
	Popularity     int       `json:"popularity,omitempty"`
	GenreIDs       []string  `json:"genreIds,omitempty"`

	// ArtistTicketmasterID defaults to the bundle artist when empty.
	ArtistTicketmasterID string       `json:"artistTicketmasterId,omitempty"`
	Venue                *BundleVenue `json:"venue,omitempty"`
}

// BundleSetlist is an ordered song list for one show.
type BundleSetlist struct {
	ShowTicketmasterID string   `json:"showTicketmasterId"`
	Source             string   `json:"source,omitempty"`
	SetlistFMID        string   `json:"setlistfmId,omitempty"`
	Songs              []string `json:"songs"`
}

// Empty reports whether the bundle carries no entities.
func (b *Bundle) Empty() bool {
	return b == nil || (b.Artist == nil && b.Venue == nil && len(b.Shows) == 0 && len(b.Setlists) == 0)
}

// TableCounts is the reconciler outcome for one table.
type TableCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ReconcileResult reports what one bundle changed and the internal ids it resolved.
type ReconcileResult struct {
	Tables   map[string]TableCounts `json:"tables"`
	ArtistID string                 `json:"artistId,omitempty"`
	VenueIDs map[string]string      `json:"venueIds,omitempty"`   // ticketmaster id -> id
	ShowIDs  map[string]string      `json:"showIds,omitempty"`    // ticketmaster id -> id
	Setlists map[string]string      `json:"setlistIds,omitempty"` // show id -> setlist id
}

// NewReconcileResult returns an empty result with initialized maps.
func NewReconcileResult() *ReconcileResult {
	return &ReconcileResult{
		Tables:   map[string]TableCounts{},
		VenueIDs: map[string]string{},
		ShowIDs:  map[string]string{},
		Setlists: map[string]string{},
	}
}

// Count records a created or updated row for table.
func (r *ReconcileResult) Count(table string, created bool) {
	c := r.Tables[table]
	if created {
		c.Created++
	} else {
		c.Updated++
	}
	r.Tables[table] = c
}
