// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/models"
)

// EntityType is the kind of entity a sync request targets.
type EntityType string

const (
	EntityArtist  EntityType = "artist"
	EntityShow    EntityType = "show"
	EntityVenue   EntityType = "venue"
	EntitySetlist EntityType = "setlist"
	EntitySong    EntityType = "song"
)

// EntityTypes lists every valid entity type.
var EntityTypes = []EntityType{EntityArtist, EntityShow, EntityVenue, EntitySetlist, EntitySong}

// ParseEntityType returns the entity type named by s.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", apperr.Validationf("Invalid entity type: %s", s)
}

// Valid reports whether t is one of EntityTypes.
func (t EntityType) Valid() bool {
	switch t {
	case EntityArtist, EntityShow, EntityVenue, EntitySetlist, EntitySong:
		return true
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}

// Options tunes a sync run.
type Options = models.TaskOptions

// Request is a validated sync request. Build one with BuildRequest.
//
// EntityID is always the internal id of the entity named by EntityType,
// except for setlist requests (the show id) and song requests (the artist
// id), since setlists and song catalogs are addressed through their owner.
type Request struct {
	EntityType     EntityType `json:"entityType"`
	EntityID       string     `json:"entityId,omitempty"`
	TicketmasterID string     `json:"ticketmasterId,omitempty"`
	SpotifyID      string     `json:"spotifyId,omitempty"`
	Options        Options    `json:"options"`
}

// RequestInput is the unvalidated form of a Request, as decoded from an
// API body or a queued task.
type RequestInput struct {
	EntityType     string  `json:"entityType"`
	EntityID       string  `json:"entityId,omitempty"`
	TicketmasterID string  `json:"ticketmasterId,omitempty"`
	SpotifyID      string  `json:"spotifyId,omitempty"`
	Options        Options `json:"options,omitempty"`
}

// BuildRequest validates in and returns the request to sync.
func BuildRequest(in RequestInput) (*Request, error) {
	entityType, err := ParseEntityType(in.EntityType)
	if err != nil {
		return nil, err
	}

	req := &Request{
		EntityType:     entityType,
		EntityID:       strings.TrimSpace(in.EntityID),
		TicketmasterID: strings.TrimSpace(in.TicketmasterID),
		SpotifyID:      strings.TrimSpace(in.SpotifyID),
		Options:        in.Options,
	}

	if req.EntityID != "" {
		if _, err := uuid.Parse(req.EntityID); err != nil {
			return nil, apperr.Validationf("Invalid entityId: %s", req.EntityID)
		}
	}

	switch entityType {
	case EntityArtist:
		if req.EntityID == "" && req.TicketmasterID == "" {
			return nil, apperr.Validation("Artist sync requires entityId or ticketmasterId")
		}
	default:
		if req.EntityID == "" && req.TicketmasterID == "" && req.SpotifyID == "" {
			return nil, apperr.Validationf("%s sync requires an entityId, ticketmasterId or spotifyId", entityType)
		}
	}

	return req, nil
}

// RequestFromTask rebuilds the request a task was queued for.
func RequestFromTask(t *models.SyncTask) (*Request, error) {
	return BuildRequest(RequestInput{
		EntityType:     t.EntityType,
		EntityID:       t.EntityID,
		TicketmasterID: t.TicketmasterID,
		SpotifyID:      t.SpotifyID,
		Options:        t.Options,
	})
}

// Identifier returns the first non-empty identifier, for logs and task keys.
func (r *Request) Identifier() string {
	switch {
	case r.EntityID != "":
		return r.EntityID
	case r.TicketmasterID != "":
		return r.TicketmasterID
	default:
		return r.SpotifyID
	}
}
