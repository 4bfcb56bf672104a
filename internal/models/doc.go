// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package models defines the persisted entities of TheSet and their JSON shape.

Ownership:

	Artist ──< Show >── Venue
	             │
	          Setlist ──< SetlistSong ──< Vote

Artists, venues and shows carry a Ticketmaster natural key; a setlist is
unique per show; a setlist song is unique per (setlist, name). Internal ids
are UUID strings and never change once assigned.

SetlistSong.VoteCount is a derived counter. Only the vote store increments or
decrements it; reconciliation never writes it.

JSON field names are camelCase to match the web client.
*/
package models
