// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Venue is a concert location, keyed by its Ticketmaster venue id.
type Venue struct {
	ID             string    `json:"id"`
	TicketmasterID string    `json:"ticketmasterId,omitempty"`
	Name           string    `json:"name"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Country        string    `json:"country,omitempty"`
	Address        string    `json:"address,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
