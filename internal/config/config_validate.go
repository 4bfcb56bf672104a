// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
// Missing third-party API keys are not errors here: the features that need
// them report a configuration error at request time instead.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSupabase(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateVotes(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverDuckDB, DriverPostgres, c.Database.Driver)
	}
	return nil
}

func (c *Config) validateSupabase() error {
	if c.Supabase.URL == "" {
		return nil
	}
	u, err := url.Parse(c.Supabase.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("NEXT_PUBLIC_SUPABASE_URL must be an absolute URL, got %q", c.Supabase.URL)
	}
	if c.Supabase.SyncFunction == "" {
		return fmt.Errorf("SUPABASE_SYNC_FUNCTION cannot be empty")
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Source {
	case SyncSourceAuto, SyncSourceDirect:
	case SyncSourceRemote:
		if !c.RemoteSyncConfigured() {
			return fmt.Errorf("NEXT_PUBLIC_SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required when SYNC_SOURCE=remote")
		}
	default:
		return fmt.Errorf("SYNC_SOURCE must be one of auto, remote, direct, got %q", c.Sync.Source)
	}

	if c.Sync.QueueBatchSize < 1 || c.Sync.QueueBatchSize > 100 {
		return fmt.Errorf("SYNC_QUEUE_BATCH_SIZE must be between 1 and 100, got %d", c.Sync.QueueBatchSize)
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", c.Sync.MaxAttempts)
	}
	if c.Sync.WorkerEnabled && c.Sync.QueueInterval <= 0 {
		return fmt.Errorf("SYNC_QUEUE_INTERVAL must be positive when the queue worker is enabled")
	}
	return nil
}

func (c *Config) validateVotes() error {
	if c.Votes.AnonymousLimit < 0 {
		return fmt.Errorf("ANONYMOUS_VOTE_LIMIT cannot be negative, got %d", c.Votes.AnonymousLimit)
	}
	if c.Votes.CookieName == "" {
		return fmt.Errorf("VISITOR_COOKIE_NAME cannot be empty")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AppSecret != "" && len(c.Security.AppSecret) < 32 {
		return fmt.Errorf("APP_SECRET must be at least 32 characters")
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1 when rate limiting is enabled")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" && c.Server.Environment == "production" {
			return fmt.Errorf("CORS_ORIGINS cannot contain * in production")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
