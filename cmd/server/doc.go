// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package main is the entry point of the TheSet API server.

TheSet lets fans vote on the songs they want to hear at upcoming concerts.
The server keeps artist, show, venue and setlist data in sync with
Ticketmaster, Spotify and setlist.fm, records votes, and pushes live vote
counts to browsers over WebSocket.

# Architecture

	RootSupervisor ("theset")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── event-bus      (watermill gochannel router)
	│   └── websocket-hub
	├── WorkerSupervisor ("worker-layer")
	│   └── queue-worker   (if SYNC_WORKER_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Configuration: dotenv files, then koanf (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Database: DuckDB (default) or Postgres through pgx
 4. Event bus and WebSocket hub
 5. Sync source: remote (hosted sync function) or direct (provider APIs)
 6. Orchestrator and queue worker
 7. Authentication (Supabase sessions, visitor cookies, cron secret) and
    Casbin authorization for /api/admin
 8. HTTP server

# Configuration

Key environment variables:

	TICKETMASTER_API_KEY        Discovery API key (proxy and direct sync)
	SPOTIFY_CLIENT_ID/SECRET    client credentials for artist enrichment
	SETLIST_FM_API_KEY          past setlists
	NEXT_PUBLIC_SUPABASE_URL    hosted sync function base URL
	SUPABASE_SERVICE_ROLE_KEY   bearer key for the sync function
	SUPABASE_JWT_SECRET         verifies user session tokens
	CRON_SECRET_TOKEN           bearer secret of /api/cron/*
	APP_SECRET                  derives the visitor cookie and IP-hash keys
	TRUSTED_PROXIES             proxies whose X-Forwarded-For is believed

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up to
the shutdown timeout, the hub closes every client and the event bus stops
before the database is closed.
*/
package main
