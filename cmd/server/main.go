// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/theset/docs" // Registers the swagger document
	"github.com/tomtom215/theset/internal/api"
	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/authz"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/middleware"
	"github.com/tomtom215/theset/internal/supervisor"
	"github.com/tomtom215/theset/internal/supervisor/services"
	syncpkg "github.com/tomtom215/theset/internal/sync"
	ws "github.com/tomtom215/theset/internal/websocket"
)

const (
	shutdownTimeout = 10 * time.Second

	// queueCleanupInterval is how often the in-process worker prunes the queue.
	queueCleanupInterval = time.Hour
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run() error {
	loaded, err := config.LoadDotEnv()
	if err != nil {
		return fmt.Errorf("failed to load dotenv files: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", api.Version).
		Strs("dotenv_files", loaded).
		Str("environment", cfg.Server.Environment).
		Str("database_driver", cfg.Database.Driver).
		Msg("Starting TheSet")

	generated, err := cfg.EnsureAppSecret()
	if err != nil {
		return err
	}
	if generated {
		logging.Warn().Msg("APP_SECRET is not set; generated a random one. Visitor cookies will not survive a restart")
	}
	warnInsecureSettings(cfg)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	bus, err := events.NewBus(events.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	hub := ws.NewHub(cfg.Security.CORSOrigins)
	bus.OnVoteUpdated("websocket-votes", hub.HandleVoteUpdated)
	bus.OnEntitySynced("websocket-syncs", hub.HandleEntitySynced)

	// Sync pipeline
	tm := syncpkg.NewTicketmasterClient(&cfg.Ticketmaster)
	source := newSyncSource(cfg, db, tm)
	orchestrator := syncpkg.NewOrchestrator(db, source, syncpkg.NewStaleness(nil), bus)
	worker := syncpkg.NewWorker(db, orchestrator, &cfg.Sync, nil)

	// Authentication and authorization
	visitors, err := auth.NewVisitorIdentity(cfg.Security.AppSecret, &cfg.Votes)
	if err != nil {
		return fmt.Errorf("failed to initialize visitor identity: %w", err)
	}
	sessions := auth.NewSessionVerifier(&cfg.Supabase)
	if !sessions.Enabled() {
		logging.Warn().Msg("SUPABASE_JWT_SECRET is not set; session tokens are rejected and admin endpoints are unreachable")
	}
	authMW := auth.NewMiddleware(sessions, visitors, auth.NewCronAuth(cfg.Security.CronSecret))

	enforcerCfg := authz.DefaultEnforcerConfig()
	enforcerCfg.PolicyPath = cfg.Security.AdminPolicyPath
	enforcer, err := authz.NewEnforcer(enforcerCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize authorization: %w", err)
	}
	defer enforcer.Close()
	logging.Info().Str("policy", enforcer.Source()).Msg("Authorization policy loaded")

	// HTTP
	perfMon := middleware.NewPerformanceMonitor(1000)
	handler := api.NewHandler(api.Deps{
		Config:       cfg,
		Store:        db,
		Syncer:       orchestrator,
		Queue:        worker,
		Ticketmaster: tm,
		Auth:         authMW,
		Publisher:    bus,
		PerfMon:      perfMon,
	})
	defer handler.Close()

	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, chiMW, authMW, authz.NewMiddleware(enforcer), hub)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Supervision
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	tree.AddMessagingService(services.NewRunnerService("event-bus", services.RunnerFunc(bus.Run)))
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
	if cfg.Sync.WorkerEnabled {
		tree.AddWorkerService(services.NewQueueWorkerService(worker, cfg.Sync.QueueInterval, queueCleanupInterval))
		logging.Info().Dur("interval", cfg.Sync.QueueInterval).Msg("In-process queue worker enabled")
	} else {
		logging.Info().Msg("In-process queue worker disabled; drain the queue through /api/cron/process-queue")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, "http-server", shutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", server.Addr).
		Str("sync_source", source.Name()).
		Msg("Supervisor tree starting")

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree failed: %w", err)
	}
	logging.Info().Msg("Server stopped")
	return nil
}

// newSyncSource picks the hosted sync function or the direct provider
// clients according to sync.source.
func newSyncSource(cfg *config.Config, db *database.DB, tm *syncpkg.TicketmasterClient) syncpkg.Source {
	if cfg.EffectiveSyncSource() == config.SyncSourceRemote {
		logging.Info().Str("function", cfg.Supabase.SyncFunction).Msg("Using the hosted sync function")
		return syncpkg.NewRemoteSource(&cfg.Supabase)
	}

	if !tm.Configured() {
		logging.Warn().Msg("TICKETMASTER_API_KEY is not set; direct sync and the Ticketmaster proxy will fail")
	}
	logging.Info().Msg("Using direct provider sync")
	return syncpkg.NewDirectSource(
		db,
		tm,
		syncpkg.NewSpotifyClient(&cfg.Spotify),
		syncpkg.NewSetlistFMClient(&cfg.SetlistFM),
		nil,
	)
}

func warnInsecureSettings(cfg *config.Config) {
	for _, msg := range insecureSettingWarnings(cfg) {
		logging.Warn().Msg(msg)
	}
}

// insecureSettingWarnings lists the settings that weaken a deployment.
func insecureSettingWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Security.CronSecret == "" {
		warnings = append(warnings, "CRON_SECRET_TOKEN is not set; every /api/cron request will be rejected")
	}
	for _, o := range cfg.Security.CORSOrigins {
		if o == "*" {
			warnings = append(warnings, "CORS_ORIGINS contains '*'; any site may call the API and WebSocket without credentials")
			break
		}
	}
	if cfg.Security.RateLimitDisabled {
		warnings = append(warnings, "Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if len(cfg.Security.TrustedProxies) == 0 {
		warnings = append(warnings, "TRUSTED_PROXIES is not set; X-Forwarded-For is ignored and clients are keyed by socket address")
	}
	return warnings
}
