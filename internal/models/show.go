// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Show is a single dated performance, keyed by its Ticketmaster event id.
type Show struct {
	ID             string    `json:"id"`
	TicketmasterID string    `json:"ticketmasterId,omitempty"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	TicketURL      string    `json:"ticketUrl,omitempty"`
	Status         string    `json:"status,omitempty"`
	ArtistID       string    `json:"artistId"`
	VenueID        string    `json:"venueId,omitempty"`
	Popularity     int       `json:"popularity"`
	GenreIDs       []string  `json:"genreIds"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Populated by browse queries; not stored on the shows row.
	Artist *Artist `json:"artist,omitempty"`
	Venue  *Venue  `json:"venue,omitempty"`
}

// IsPast reports whether the show date is before now.
func (s *Show) IsPast(now time.Time) bool {
	return !s.Date.IsZero() && s.Date.Before(now)
}
