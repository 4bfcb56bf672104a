// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// @title TheSet API
// @version 1.0
// @description Concert setlist voting and show data synchronization.
// @description
// @description ## Voting
// @description
// @description Signed-in users vote without limit. Anonymous visitors are keyed on a
// @description signed visitor cookie, or on a hash of the client address, and are capped
// @description at ANONYMOUS_VOTE_LIMIT votes.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {"success": false, "error": "Song not found in setlist", "code": "NOT_FOUND"}
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/theset/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Supabase session token: Bearer <jwt>
//
// @securityDefinitions.apikey CronBearer
// @in header
// @name Authorization
// @description Bearer CRON_SECRET_TOKEN
//
// @tag.name Core
// @tag.description Health checks
//
// @tag.name Browse
// @tag.description Artists, shows, venues and setlists, refreshed from upstream when stale
//
// @tag.name Votes
// @tag.description Setlist song voting
//
// @tag.name Sync
// @tag.description On-demand synchronization
//
// @tag.name Proxy
// @tag.description Ticketmaster Discovery pass-through
//
// @tag.name Cron
// @tag.description Scheduled queue maintenance, authorized by the cron secret
//
// @tag.name Admin
// @tag.description Operational endpoints for the admin role

package main
