// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package api provides the HTTP surface of TheSet.

Routes (see chi_router.go for the full table):

	GET    /api/ticketmaster          Ticketmaster Discovery proxy
	POST   /api/vote                  cast a vote {songId}
	DELETE /api/vote                  remove a vote {songId}
	POST   /api/sync                  run a sync request
	GET    /api/artists[/{id}[/shows]] browse artists
	GET    /api/shows[/{id}[/setlist]] browse shows
	GET    /api/venues/{id}           venue detail
	*      /api/cron/*                scheduled jobs (bearer CRON_SECRET_TOKEN)
	*      /api/admin/*               admin tools (admin role)
	GET    /api/ws                    live vote updates
	GET    /api/health[/live|/ready]  health checks
	GET    /metrics                   Prometheus metrics

Response Format:

Successful JSON responses use the envelope

	{"success": true, "data": ..., "meta": {...}}

and failures

	{"success": false, "error": "message", "code": "VALIDATION_FAILED"}

Errors are classified by package apperr; writeError maps each kind to its
status code and logs the failure once. The Ticketmaster proxy is the
exception: upstream responses, including errors, are forwarded verbatim.

Browse endpoints refresh stale artists and shows before answering, bounded by
sync.read_timeout. When the refresh fails the cached row is served with
meta.stale set.
*/
package api
