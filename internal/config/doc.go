// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package config provides centralized configuration management for TheSet.

Configuration is layered with koanf, lowest priority first:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/theset/config.yaml)
 3. Environment variables, mapped through an explicit allow-list

Local development may keep variables in .env or .env.local; LoadDotEnv reads
them without overriding variables already present in the process environment.

# Environment Variables

Third-party services:
  - TICKETMASTER_API_KEY: Ticketmaster Discovery API key
  - SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET: Spotify client-credentials app
  - SETLIST_FM_API_KEY: setlist.fm API key

Supabase (remote sync function and session tokens):
  - NEXT_PUBLIC_SUPABASE_URL (or SUPABASE_URL): project URL
  - SUPABASE_SERVICE_ROLE_KEY: service role key used to invoke edge functions
  - SUPABASE_JWT_SECRET: HS256 secret used to verify session tokens

Storage:
  - DATABASE_DRIVER: duckdb (default) or postgres
  - DUCKDB_PATH: DuckDB file path (default: ./data/theset.duckdb)
  - DATABASE_URL: Postgres DSN when DATABASE_DRIVER=postgres

Security:
  - CRON_SECRET_TOKEN: bearer token required by /api/cron/* endpoints
  - APP_SECRET: root secret for visitor cookies and IP hashing (HKDF-derived)
  - CORS_ORIGINS: comma-separated allowed origins

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
