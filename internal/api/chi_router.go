// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/authz"
	"github.com/tomtom215/theset/internal/middleware"
)

// Stricter per-IP limits, as a divisor of the general limit.
const (
	voteRateDivisor = 4
	syncRateDivisor = 10
)

// WebSocketHandler upgrades live-update connections. Implemented by
// *websocket.Hub.
type WebSocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
	authz         *authz.Middleware
	ws            WebSocketHandler
}

// NewRouter creates a router. ws may be nil, which disables /api/ws.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMW *auth.Middleware, authzMW *authz.Middleware, ws WebSocketHandler) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		auth:          authMW,
		authz:         authzMW,
		ws:            ws,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(router.chiMiddleware.RealIP())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	if router.handler.perfMon != nil {
		r.Use(router.handler.perfMon.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, &Response{Success: false, Error: "Not found", Code: "NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, &Response{Success: false, Error: "Method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	r.Handle("/metrics", promhttp.Handler())

	// API documentation, registered by the docs package
	r.With(middleware.DocsSecurityHeaders).Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// WebSocket
	// ========================
	// Mounted outside the compression group; the upgrade hijacks the connection.
	if router.ws != nil {
		r.Get("/api/ws", router.ws.ServeWS)
	}

	// ========================
	// Cron Endpoints
	// ========================
	r.Route("/api/cron", func(r chi.Router) {
		r.Use(router.auth.RequireCron)
		for path, h := range map[string]http.HandlerFunc{
			"/process-queue": router.handler.CronProcessQueue(),
			"/refresh-stale": router.handler.CronRefreshStale(),
			"/sync-trending": router.handler.CronSyncTrending(),
			"/cleanup":       router.handler.CronCleanup(),
		} {
			r.Get(path, h)
			r.Post(path, h)
		}
	})

	// ========================
	// Public API
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.auth.OptionalSession)

		r.Get("/api/ticketmaster", router.handler.TicketmasterProxy)

		r.Route("/api/vote", func(r chi.Router) {
			r.Use(router.chiMiddleware.StrictRateLimit("vote", voteRateDivisor))
			r.Post("/", router.handler.CastVote)
			r.Delete("/", router.handler.RemoveVote)
		})

		r.With(router.chiMiddleware.StrictRateLimit("sync", syncRateDivisor)).
			Post("/api/sync", router.handler.Sync)

		r.Route("/api/artists", func(r chi.Router) {
			r.Get("/", router.handler.ListArtists)
			r.Get("/{id}", router.handler.GetArtist)
			r.Get("/{id}/shows", router.handler.ListArtistShows)
		})
		r.Route("/api/shows", func(r chi.Router) {
			r.Get("/", router.handler.ListShows)
			r.Get("/{id}", router.handler.GetShow)
			r.Get("/{id}/setlist", router.handler.GetShowSetlist)
		})
		r.Get("/api/venues/{id}", router.handler.GetVenue)

		// ========================
		// Admin Endpoints
		// ========================
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(router.authz.AuthorizeRequest)
			r.Post("/sync-test", router.handler.SyncTest)
			r.Get("/queue", router.handler.QueueStats)
			r.Post("/queue", router.handler.EnqueueTask)
			r.Get("/performance", router.handler.Performance)
		})
	})

	return r
}
