// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/models"
	syncpkg "github.com/tomtom215/theset/internal/sync"
	"github.com/tomtom215/theset/internal/validation"
)

// defaultReadTimeout bounds refresh-on-read when sync.read_timeout is unset.
const defaultReadTimeout = 10 * time.Second

// SetlistView is a show's setlist plus the songs the caller has voted for.
type SetlistView struct {
	*models.Setlist
	VotedSongIDs []string `json:"votedSongIds"`
}

// ListArtists handles GET /api/artists?q=&limit=&offset=.
//
// @Summary List artists
// @Tags Browse
// @Produce json
// @Param q query string false "Name search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response
// @Router /artists [get]
func (h *Handler) ListArtists(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) > 100 {
		writeError(w, r, apperr.Validation("q must be at most 100 characters"))
		return
	}

	artists, err := h.store.ListArtists(r.Context(), database.ListParams{Query: q, Limit: limit + 1, Offset: offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, pagination := paginate(artists, limit, offset)
	respondData(w, r, http.StatusOK, page, &Meta{Pagination: pagination})
}

// GetArtist handles GET /api/artists/{id}, refreshing a stale artist first.
//
// @Summary Get an artist, refreshing it when stale
// @Tags Browse
// @Produce json
// @Param id path string true "Artist ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /artists/{id} [get]
func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "artist")
	if !ok {
		return
	}
	artist, err := h.store.GetArtist(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stale := false
	if h.syncer.Staleness().IsStale(artist.LastUpdated) {
		if h.refresh(r.Context(), syncpkg.EntityArtist, id) {
			if fresh, err := h.store.GetArtist(r.Context(), id); err == nil {
				artist = fresh
			}
		} else {
			stale = true
		}
	}
	respondData(w, r, http.StatusOK, artist, &Meta{Stale: stale})
}

// ListArtistShows handles GET /api/artists/{id}/shows: upcoming shows unless
// includePast=true.
//
// @Summary List an artist's shows
// @Tags Browse
// @Produce json
// @Param id path string true "Artist ID"
// @Param includePast query bool false "Include past shows"
// @Success 200 {object} Response
// @Router /artists/{id}/shows [get]
func (h *Handler) ListArtistShows(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "artist")
	if !ok {
		return
	}
	if _, err := h.store.GetArtist(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.listShows(w, r, database.ShowFilter{ArtistID: id})
}

// ListShows handles GET /api/shows?artistId=&venueId=&includePast=.
//
// @Summary List shows
// @Tags Browse
// @Produce json
// @Param artistId query string false "Artist ID"
// @Param venueId query string false "Venue ID"
// @Param includePast query bool false "Include past shows"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response
// @Router /shows [get]
func (h *Handler) ListShows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := database.ShowFilter{
		ArtistID: strings.TrimSpace(q.Get("artistId")),
		VenueID:  strings.TrimSpace(q.Get("venueId")),
	}
	for name, v := range map[string]string{"artistId": f.ArtistID, "venueId": f.VenueID} {
		if v != "" && validation.ValidateVar(v, "uuid") != nil {
			writeError(w, r, apperr.Validationf("Invalid %s", name))
			return
		}
	}
	h.listShows(w, r, f)
}

func (h *Handler) listShows(w http.ResponseWriter, r *http.Request, f database.ShowFilter) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("includePast") != "true" {
		f.From = h.now()
	}
	f.Limit = limit + 1
	f.Offset = offset

	shows, err := h.store.ListShows(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, pagination := paginate(shows, limit, offset)
	respondData(w, r, http.StatusOK, page, &Meta{Pagination: pagination})
}

// GetShow handles GET /api/shows/{id}. Stale upcoming shows are refreshed
// first; past shows are served as stored.
//
// @Summary Get a show, refreshing it when stale
// @Tags Browse
// @Produce json
// @Param id path string true "Show ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /shows/{id} [get]
func (h *Handler) GetShow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "show")
	if !ok {
		return
	}
	show, err := h.store.GetShowDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stale := false
	if !show.IsPast(h.now()) && h.syncer.Staleness().IsStale(show.UpdatedAt) {
		if h.refresh(r.Context(), syncpkg.EntityShow, id) {
			if fresh, err := h.store.GetShowDetail(r.Context(), id); err == nil {
				show = fresh
			}
		} else {
			stale = true
		}
	}
	respondData(w, r, http.StatusOK, show, &Meta{Stale: stale})
}

// GetShowSetlist handles GET /api/shows/{id}/setlist. A missing setlist of
// an upcoming show is fetched on demand.
//
// @Summary Get a show's setlist with the caller's votes
// @Tags Browse
// @Produce json
// @Param id path string true "Show ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /shows/{id}/setlist [get]
func (h *Handler) GetShowSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "show")
	if !ok {
		return
	}
	show, err := h.store.GetShowDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	setlist, err := h.store.GetSetlistByShow(r.Context(), id)
	if errors.Is(err, database.ErrSetlistNotFound) && !show.IsPast(h.now()) {
		if h.refresh(r.Context(), syncpkg.EntitySetlist, id) {
			setlist, err = h.store.GetSetlistByShow(r.Context(), id)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := &SetlistView{Setlist: setlist, VotedSongIDs: []string{}}
	if voter := h.voter(w, r); voter.Valid() {
		voted, err := h.store.VotedSongIDs(r.Context(), setlist.ID, voter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if voted != nil {
			view.VotedSongIDs = voted
		}
	}
	respondOK(w, r, view)
}

// GetVenue handles GET /api/venues/{id}.
//
// @Summary Get a venue
// @Tags Browse
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /venues/{id} [get]
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "venue")
	if !ok {
		return
	}
	venue, err := h.store.GetVenue(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, venue)
}

// refresh runs a bounded synchronous sync and reports whether it succeeded.
func (h *Handler) refresh(ctx context.Context, entityType syncpkg.EntityType, id string) bool {
	timeout := h.config.Sync.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := h.syncer.Sync(ctx, &syncpkg.Request{EntityType: entityType, EntityID: id})
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("entity_type", entityType.String()).
			Str("entity_id", id).
			Msg("Refresh on read failed, serving cached data")
		return false
	}
	return true
}

// pathID reads and validates the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (string, bool) {
	id := chi.URLParam(r, "id")
	if validation.ValidateVar(id, "required,uuid") != nil {
		writeError(w, r, apperr.Validationf("Invalid %s id", entity))
		return "", false
	}
	return id, true
}
