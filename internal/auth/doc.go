// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package auth identifies callers of the HTTP API.

Three kinds of caller exist:

  - Session users, authenticated by a Supabase access token (HS256 JWT)
    presented as "Authorization: Bearer <token>" or the sb-access-token cookie.
  - Anonymous visitors, identified by a signed visitor cookie. A visitor
    without a verifiable cookie is keyed by an HMAC of the client IP, and that
    key is pinned into a fresh cookie so the identity stays stable.
  - The scheduler, which calls cron routes with "Authorization: Bearer
    <CRON_SECRET_TOKEN>".

Usage:

	sessions := auth.NewSessionVerifier(&cfg.Supabase)
	visitors, err := auth.NewVisitorIdentity(cfg.Security.AppSecret, &cfg.Votes)
	mw := auth.NewMiddleware(sessions, visitors, auth.NewCronAuth(cfg.Security.CronSecret))

	r.With(mw.OptionalSession).Post("/api/vote", h.CastVote)
	r.With(mw.RequireCron).Post("/api/cron/process-queue", h.CronProcessQueue)

Handlers read the caller with SubjectFromContext and Middleware.Voter.
*/
package auth
