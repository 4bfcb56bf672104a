// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Setlist sources.
const (
	SetlistSourceSetlistFM = "setlistfm"
	SetlistSourcePredicted = "predicted"
	SetlistSourceRemote    = "remote"
)

// Setlist is the ordered song list for one show.
type Setlist struct {
	ID          string        `json:"id"`
	ShowID      string        `json:"showId"`
	ArtistID    string        `json:"artistId"`
	Source      string        `json:"source"`
	SetlistFMID string        `json:"setlistfmId,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Songs       []SetlistSong `json:"songs"`
}

// SetlistSong is one votable entry of a setlist.
type SetlistSong struct {
	ID        string    `json:"id"`
	SetlistID string    `json:"setlistId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	VoteCount int       `json:"voteCount"`
	CreatedAt time.Time `json:"createdAt"`
}
