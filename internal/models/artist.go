// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Artist is a performer, keyed by its Ticketmaster attraction id.
type Artist struct {
	ID             string         `json:"id"`
	TicketmasterID string         `json:"ticketmasterId,omitempty"`
	SpotifyID      string         `json:"spotifyId,omitempty"`
	Name           string         `json:"name"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Genres         []string       `json:"genres"`
	Popularity     int            `json:"popularity"`
	Followers      int            `json:"followers"`
	StoredSongs    []TrackSummary `json:"storedSongs"`
	LastUpdated    time.Time      `json:"lastUpdated"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// TrackSummary is a cached catalog track used to seed predicted setlists.
type TrackSummary struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Album      string `json:"album,omitempty"`
	Popularity int    `json:"popularity,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// UpdatedAt returns the freshness timestamp. Artists track it as last_updated.
func (a *Artist) UpdatedAt() time.Time {
	return a.LastUpdated
}
