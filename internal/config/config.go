// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Ticketmaster TicketmasterConfig `koanf:"ticketmaster"`
	Spotify      SpotifyConfig      `koanf:"spotify"`
	SetlistFM    SetlistFMConfig    `koanf:"setlistfm"`
	Supabase     SupabaseConfig     `koanf:"supabase"`
	Sync         SyncConfig         `koanf:"sync"`
	Votes        VotesConfig        `koanf:"votes"`
	Security     SecurityConfig     `koanf:"security"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `koanf:"port"`
	Host         string        `koanf:"host"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	Environment  string        `koanf:"environment"`
}

// Database drivers supported by the store.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds relational store configuration.
// Path, MaxMemory and Threads apply to DuckDB; DSN and MaxOpenConns to Postgres.
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	DSN          string `koanf:"dsn"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// TicketmasterConfig holds Ticketmaster Discovery API settings
type TicketmasterConfig struct {
	APIKey    string        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// SpotifyConfig holds Spotify client-credentials settings
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Market       string `koanf:"market"`
	TopTracks    int    `koanf:"top_tracks"`
}

// SetlistFMConfig holds setlist.fm API settings
type SetlistFMConfig struct {
	APIKey    string        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
	RateLimit float64       `koanf:"rate_limit"`
}

// SupabaseConfig holds the hosted project settings used for the remote sync
// function and for verifying session tokens.
type SupabaseConfig struct {
	URL            string        `koanf:"url"`
	ServiceRoleKey string        `koanf:"service_role_key"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SyncFunction   string        `koanf:"sync_function"`
	Timeout        time.Duration `koanf:"timeout"`
}

// Sync sources.
const (
	SyncSourceAuto   = "auto"
	SyncSourceRemote = "remote"
	SyncSourceDirect = "direct"
)

// SyncConfig holds orchestrator and background queue settings
type SyncConfig struct {
	Source         string        `koanf:"source"`
	WorkerEnabled  bool          `koanf:"worker_enabled"`
	QueueInterval  time.Duration `koanf:"queue_interval"`
	QueueBatchSize int           `koanf:"queue_batch_size"`
	MaxAttempts    int           `koanf:"max_attempts"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
	LeaseTimeout   time.Duration `koanf:"lease_timeout"`
	Retention      time.Duration `koanf:"retention"`
	ReadTimeout    time.Duration `koanf:"read_timeout"` // bound on refresh-on-read
	StaleBatchSize int           `koanf:"stale_batch_size"`
	TrendingSize   int           `koanf:"trending_size"`
}

// VotesConfig holds voting settings
type VotesConfig struct {
	AnonymousLimit int           `koanf:"anonymous_limit"`
	CookieName     string        `koanf:"cookie_name"`
	CookieMaxAge   time.Duration `koanf:"cookie_max_age"`
	CookieSecure   bool          `koanf:"cookie_secure"`
}

// SecurityConfig holds secrets and HTTP hardening settings
type SecurityConfig struct {
	CronSecret        string        `koanf:"cron_secret"`
	AppSecret         string        `koanf:"app_secret"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	AdminPolicyPath   string        `koanf:"admin_policy_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RemoteSyncConfigured reports whether the hosted sync function can be invoked.
func (c *Config) RemoteSyncConfigured() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}

// EffectiveSyncSource resolves "auto" to remote or direct.
func (c *Config) EffectiveSyncSource() string {
	switch c.Sync.Source {
	case SyncSourceRemote, SyncSourceDirect:
		return c.Sync.Source
	default:
		if c.RemoteSyncConfigured() {
			return SyncSourceRemote
		}
		return SyncSourceDirect
	}
}
