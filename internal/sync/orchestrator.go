// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

// Store is everything the Orchestrator needs from the database.
type Store interface {
	Catalog
	GetShowDetail(ctx context.Context, id string) (*models.Show, error)
	GetSetlistByShow(ctx context.Context, showID string) (*models.Setlist, error)
	ApplyBundle(ctx context.Context, b *models.Bundle) (*models.ReconcileResult, error)
}

// EventPublisher receives entity.synced notifications. Implemented by *events.Bus.
type EventPublisher interface {
	PublishEntitySynced(ctx context.Context, ev *events.EntitySynced) error
}

// Result is the outcome of one sync run, returned to API callers.
type Result struct {
	Success    bool                    `json:"success"`
	Skipped    bool                    `json:"skipped,omitempty"`
	EntityType EntityType              `json:"entityType"`
	EntityID   string                  `json:"entityId,omitempty"`
	Source     string                  `json:"source,omitempty"`
	Data       interface{}             `json:"data,omitempty"`
	Reconciled *models.ReconcileResult `json:"reconciled,omitempty"`
}

// Orchestrator runs sync requests: staleness check, source fetch,
// transactional reconcile and event publication.
type Orchestrator struct {
	store     Store
	source    Source
	staleness *Staleness
	publisher EventPublisher

	// flight collapses concurrent syncs of the same entity into one run.
	flight singleflight.Group
}

// NewOrchestrator returns an orchestrator. publisher may be nil.
func NewOrchestrator(store Store, source Source, staleness *Staleness, publisher EventPublisher) *Orchestrator {
	if staleness == nil {
		staleness = NewStaleness(nil)
	}
	return &Orchestrator{
		store:     store,
		source:    source,
		staleness: staleness,
		publisher: publisher,
	}
}

// Staleness returns the evaluator used for skip decisions.
func (o *Orchestrator) Staleness() *Staleness {
	return o.staleness
}

// SourceName returns the active source name.
func (o *Orchestrator) SourceName() string {
	return o.source.Name()
}

// flightTimeout bounds a shared sync run. The run is detached from any one
// caller, so it needs a deadline of its own.
const flightTimeout = 2 * time.Minute

// Sync runs req. Concurrent calls for the same entity share one run; a
// caller that gives up early leaves the run going for the others.
func (o *Orchestrator) Sync(ctx context.Context, req *Request) (*Result, error) {
	key := string(req.EntityType) + ":" + req.Identifier()
	if req.Options.ForceRefresh {
		key += ":force"
	}

	ch := o.flight.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return o.run(runCtx, req)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logging.Ctx(ctx).Debug().Str("key", key).Msg("Joined in-flight sync")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, apperr.SyncFailure("Sync did not finish in time", ctx.Err())
	}
}

func (o *Orchestrator) run(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	source := o.source.Name()
	logger := logging.Ctx(ctx).With().
		Str("entity_type", req.EntityType.String()).
		Str("identifier", req.Identifier()).
		Str("source", source).
		Logger()

	if !req.Options.ForceRefresh {
		entity, updatedAt, found, err := o.resolve(ctx, req)
		if err != nil {
			metrics.RecordSync(req.EntityType.String(), source, "error", time.Since(start))
			return nil, err
		}
		if found && !o.staleness.IsStale(updatedAt) {
			metrics.RecordSync(req.EntityType.String(), source, "skipped", time.Since(start))
			logger.Debug().Time("updated_at", updatedAt).Msg("Entity is fresh, skipping sync")
			return &Result{
				Success:    true,
				Skipped:    true,
				EntityType: req.EntityType,
				EntityID:   entityID(entity),
				Source:     source,
				Data:       entity,
			}, nil
		}
	}

	bundle, err := o.source.Fetch(ctx, req)
	if err != nil {
		metrics.RecordSync(req.EntityType.String(), source, "error", time.Since(start))
		logger.Warn().Err(err).Msg("Sync source failed")
		return nil, classifySyncError("Sync failed", err)
	}
	if bundle.Empty() {
		metrics.RecordSync(req.EntityType.String(), source, "error", time.Since(start))
		return nil, apperr.SyncFailure("Sync returned no data", nil)
	}

	reconciled, err := o.store.ApplyBundle(ctx, bundle)
	if err != nil {
		metrics.RecordSync(req.EntityType.String(), source, "error", time.Since(start))
		logger.Error().Err(err).Msg("Failed to reconcile sync bundle")
		return nil, classifySyncError("Failed to save synced data", err)
	}

	entity, _, _, err := o.resolve(ctx, o.resolvedRequest(req, bundle, reconciled))
	if err != nil {
		logger.Warn().Err(err).Msg("Synced entity could not be re-read")
	}

	id := entityID(entity)
	o.publish(ctx, req, id, source, reconciled)

	metrics.RecordSync(req.EntityType.String(), source, "success", time.Since(start))
	logger.Info().
		Str("entity_id", id).
		Interface("tables", reconciled.Tables).
		Dur("duration", time.Since(start)).
		Msg("Entity synced")

	return &Result{
		Success:    true,
		EntityType: req.EntityType,
		EntityID:   id,
		Source:     source,
		Data:       entity,
		Reconciled: reconciled,
	}, nil
}

// resolvedRequest adds the ids the reconciler assigned, so a request made by
// an external id can be re-read after its first sync.
func (o *Orchestrator) resolvedRequest(req *Request, b *models.Bundle, r *models.ReconcileResult) *Request {
	out := *req
	switch req.EntityType {
	case EntityArtist, EntitySong:
		if out.EntityID == "" {
			out.EntityID = r.ArtistID
		}
		if out.TicketmasterID == "" && b.Artist != nil {
			out.TicketmasterID = b.Artist.TicketmasterID
		}
	case EntityShow, EntitySetlist:
		if out.EntityID == "" && out.TicketmasterID != "" {
			out.EntityID = r.ShowIDs[out.TicketmasterID]
		}
	case EntityVenue:
		if out.EntityID == "" && b.Venue != nil {
			out.EntityID = r.VenueIDs[b.Venue.TicketmasterID]
		}
	}
	return &out
}

// resolve loads the local entity a request targets and its last refresh.
// found is false when nothing is stored yet.
func (o *Orchestrator) resolve(ctx context.Context, req *Request) (entity interface{}, updatedAt time.Time, found bool, err error) {
	switch req.EntityType {
	case EntityArtist, EntitySong:
		a, err := o.store.FindArtist(ctx, req.EntityID, req.TicketmasterID, req.SpotifyID)
		if err != nil {
			return notFoundOK(err)
		}
		updatedAt = a.LastUpdated
		if req.EntityType == EntitySong && len(a.StoredSongs) == 0 {
			updatedAt = time.Time{}
		}
		return a, updatedAt, true, nil

	case EntityShow:
		s, err := o.store.FindShow(ctx, req.EntityID, req.TicketmasterID)
		if err != nil {
			return notFoundOK(err)
		}
		detail, err := o.store.GetShowDetail(ctx, s.ID)
		if err != nil {
			return notFoundOK(err)
		}
		return detail, detail.UpdatedAt, true, nil

	case EntityVenue:
		v, err := o.store.FindVenue(ctx, req.EntityID, req.TicketmasterID)
		if err != nil {
			return notFoundOK(err)
		}
		return v, v.UpdatedAt, true, nil

	case EntitySetlist:
		s, err := o.store.FindShow(ctx, req.EntityID, req.TicketmasterID)
		if err != nil {
			return notFoundOK(err)
		}
		sl, err := o.store.GetSetlistByShow(ctx, s.ID)
		if err != nil {
			return notFoundOK(err)
		}
		return sl, sl.UpdatedAt, true, nil
	}
	return nil, time.Time{}, false, apperr.Validationf("Invalid entity type: %s", req.EntityType)
}

func notFoundOK(err error) (interface{}, time.Time, bool, error) {
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, time.Time{}, false, nil
	}
	return nil, time.Time{}, false, err
}

func (o *Orchestrator) publish(ctx context.Context, req *Request, id, source string, r *models.ReconcileResult) {
	if o.publisher == nil {
		return
	}
	ev := &events.EntitySynced{
		EntityType: req.EntityType.String(),
		EntityID:   id,
		Source:     source,
		Tables:     r.Tables,
		ShowIDs:    showIDs(r),
		SyncedAt:   o.staleness.Now().UTC(),
	}
	if err := o.publisher.PublishEntitySynced(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish entity.synced")
	}
}

func showIDs(r *models.ReconcileResult) []string {
	ids := make([]string, 0, len(r.ShowIDs))
	for _, id := range r.ShowIDs {
		ids = append(ids, id)
	}
	return ids
}

// entityID returns the internal id of a resolved entity, "" for nil.
func entityID(entity interface{}) string {
	switch e := entity.(type) {
	case *models.Artist:
		return e.ID
	case *models.Show:
		return e.ID
	case *models.Venue:
		return e.ID
	case *models.Setlist:
		return e.ID
	}
	return ""
}

// classifySyncError keeps typed errors and wraps anything else as a SyncFailure.
func classifySyncError(message string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.SyncFailure(message, err)
}
