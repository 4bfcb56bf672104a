// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package sync keeps the local catalog of artists, shows, venues and setlists
current with the third-party music APIs.

A sync run has four stages:

 1. Request: BuildRequest validates the entity type and identifiers once at
    the boundary, before any side effect.
 2. Staleness: the Orchestrator resolves the local row and skips the run when
    it was refreshed within FreshnessWindow (unless forceRefresh is set).
 3. Source: a Source returns a models.Bundle. RemoteSource calls the hosted
    sync function; DirectSource assembles the bundle itself from the
    Ticketmaster, Spotify and setlist.fm clients.
 4. Reconcile: the bundle is applied by the store in one transaction and an
    entity.synced event is published.

# Provider Clients

Every upstream client goes through retryableFetch (429 and 5xx retries with
exponential backoff, Retry-After honoured) and a gobreaker circuit breaker
that reports its state to Prometheus:

	tm := sync.NewTicketmasterClient(&cfg.Ticketmaster)
	raw, err := tm.Raw(ctx, "events.json", url.Values{"keyword": {"radiohead"}})

# Background Queue

Worker claims due tasks from the store every interval, runs them through the
Orchestrator and completes or fails them. Failed tasks are rescheduled with
exponential backoff until their attempts are exhausted. The cron endpoints
call the same Worker methods synchronously.
*/
package sync
