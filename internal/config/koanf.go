// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/theset/config.yaml",
	"/etc/theset/config.yml",
}

// DefaultDotEnvFiles are read by LoadDotEnv, most specific first.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			Environment:  "production",
		},
		Database: DatabaseConfig{
			Driver:       DriverDuckDB,
			Path:         "./data/theset.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // runtime.NumCPU()
			MaxOpenConns: 10,
		},
		Ticketmaster: TicketmasterConfig{
			BaseURL:   "https://app.ticketmaster.com/discovery/v2",
			Timeout:   15 * time.Second,
			Retries:   3,
			RateLimit: 5,
			CacheTTL:  5 * time.Minute,
		},
		Spotify: SpotifyConfig{
			Market:    "US",
			TopTracks: 10,
		},
		SetlistFM: SetlistFMConfig{
			BaseURL:   "https://api.setlist.fm/rest/1.0",
			Timeout:   15 * time.Second,
			Retries:   3,
			RateLimit: 2,
		},
		Supabase: SupabaseConfig{
			SyncFunction: "unified-sync-v2",
			Timeout:      15 * time.Second,
		},
		Sync: SyncConfig{
			Source:         SyncSourceAuto,
			WorkerEnabled:  true,
			QueueInterval:  time.Minute,
			QueueBatchSize: 5,
			MaxAttempts:    3,
			RetryDelay:     30 * time.Second,
			LeaseTimeout:   10 * time.Minute,
			Retention:      7 * 24 * time.Hour,
			ReadTimeout:    10 * time.Second,
			StaleBatchSize: 50,
			TrendingSize:   20,
		},
		Votes: VotesConfig{
			AnonymousLimit: 3,
			CookieName:     "theset_visitor",
			CookieMaxAge:   365 * 24 * time.Hour,
			CookieSecure:   true,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			TrustedProxies:    []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using koanf with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TICKETMASTER_API_KEY -> ticketmaster.api_key
	// NEXT_PUBLIC_SUPABASE_URL -> supabase.url
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv reads the given dotenv files (DefaultDotEnvFiles when none are given)
// into the process environment. Existing variables are never overridden and
// missing files are skipped. Returns the files that were loaded.
func LoadDotEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = DefaultDotEnvFiles
	}

	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("failed to stat %s: %w", f, err)
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps the environment variable names used by the web app and its
// deployment to koanf config paths.
var envMappings = map[string]string{
	// Server
	"port":               "server.port",
	"http_port":          "server.port",
	"http_host":          "server.host",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"environment":        "server.environment",
	"node_env":           "server.environment",

	// Database
	"database_driver":         "database.driver",
	"database_url":            "database.dsn",
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"database_max_open_conns": "database.max_open_conns",

	// Ticketmaster
	"ticketmaster_api_key":    "ticketmaster.api_key",
	"ticketmaster_base_url":   "ticketmaster.base_url",
	"ticketmaster_timeout":    "ticketmaster.timeout",
	"ticketmaster_retries":    "ticketmaster.retries",
	"ticketmaster_rate_limit": "ticketmaster.rate_limit",
	"ticketmaster_cache_ttl":  "ticketmaster.cache_ttl",

	// Spotify
	"spotify_client_id":     "spotify.client_id",
	"spotify_client_secret": "spotify.client_secret",
	"spotify_market":        "spotify.market",
	"spotify_top_tracks":    "spotify.top_tracks",

	// setlist.fm
	"setlist_fm_api_key":    "setlistfm.api_key",
	"setlist_fm_base_url":   "setlistfm.base_url",
	"setlist_fm_timeout":    "setlistfm.timeout",
	"setlist_fm_retries":    "setlistfm.retries",
	"setlist_fm_rate_limit": "setlistfm.rate_limit",

	// Supabase
	"next_public_supabase_url":  "supabase.url",
	"supabase_url":              "supabase.url",
	"supabase_service_role_key": "supabase.service_role_key",
	"supabase_jwt_secret":       "supabase.jwt_secret",
	"supabase_sync_function":    "supabase.sync_function",
	"supabase_timeout":          "supabase.timeout",

	// Sync orchestrator and queue
	"sync_source":           "sync.source",
	"sync_worker_enabled":   "sync.worker_enabled",
	"sync_queue_interval":   "sync.queue_interval",
	"sync_queue_batch_size": "sync.queue_batch_size",
	"sync_max_attempts":     "sync.max_attempts",
	"sync_retry_delay":      "sync.retry_delay",
	"sync_lease_timeout":    "sync.lease_timeout",
	"sync_retention":        "sync.retention",
	"sync_read_timeout":     "sync.read_timeout",
	"sync_stale_batch_size": "sync.stale_batch_size",
	"sync_trending_size":    "sync.trending_size",

	// Votes
	"anonymous_vote_limit":  "votes.anonymous_limit",
	"visitor_cookie_name":   "votes.cookie_name",
	"visitor_cookie_secure": "votes.cookie_secure",

	// Security
	"cron_secret_token":   "security.cron_secret",
	"app_secret":          "security.app_secret",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"admin_policy_path":   "security.admin_policy_path",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return an empty string so unrelated environment variables
// never leak into configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
