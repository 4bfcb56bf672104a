// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/cache"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/middleware"
	"github.com/tomtom215/theset/internal/models"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

// Store is the persistence surface used by the handlers. Implemented by
// *database.DB.
type Store interface {
	Ping(ctx context.Context) error

	GetArtist(ctx context.Context, id string) (*models.Artist, error)
	ListArtists(ctx context.Context, p database.ListParams) ([]models.Artist, error)
	GetShowDetail(ctx context.Context, id string) (*models.Show, error)
	ListShows(ctx context.Context, f database.ShowFilter) ([]models.Show, error)
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	GetSetlistByShow(ctx context.Context, showID string) (*models.Setlist, error)

	CastVote(ctx context.Context, songID string, voter models.Voter, anonLimit int) (*models.VoteResult, error)
	RemoveVote(ctx context.Context, songID string, voter models.Voter) (*models.VoteResult, error)
	VotedSongIDs(ctx context.Context, setlistID string, voter models.Voter) ([]string, error)
}

// Syncer runs sync requests. Implemented by *sync.Orchestrator.
type Syncer interface {
	Sync(ctx context.Context, req *syncpkg.Request) (*syncpkg.Result, error)
	Staleness() *syncpkg.Staleness
	SourceName() string
}

// Queue drives the background task queue. Implemented by *sync.Worker.
type Queue interface {
	Enqueue(ctx context.Context, req *syncpkg.Request, priority int) (*models.SyncTask, bool, error)
	ProcessBatch(ctx context.Context) (*syncpkg.BatchResult, error)
	RefreshStale(ctx context.Context) (*syncpkg.EnqueueResult, error)
	SyncTrending(ctx context.Context) (*syncpkg.EnqueueResult, error)
	Cleanup(ctx context.Context) (*syncpkg.CleanupResult, error)
	Stats(ctx context.Context) (models.QueueStats, error)
}

// TicketmasterProxy fetches raw Discovery API responses. Implemented by
// *sync.TicketmasterClient.
type TicketmasterProxy interface {
	Raw(ctx context.Context, endpoint string, params url.Values) (*syncpkg.RawResponse, error)
}

// VotePublisher announces vote changes. Implemented by *events.Bus.
type VotePublisher interface {
	PublishVoteUpdated(ctx context.Context, ev *events.VoteUpdated) error
}

// Deps bundles the collaborators of a Handler. Publisher and PerfMon are
// optional.
type Deps struct {
	Config       *config.Config
	Store        Store
	Syncer       Syncer
	Queue        Queue
	Ticketmaster TicketmasterProxy
	Auth         *auth.Middleware
	Publisher    VotePublisher
	PerfMon      *middleware.PerformanceMonitor
	Clock        func() time.Time
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files by route group:
//   - handlers_ticketmaster.go: Discovery API proxy
//   - handlers_votes.go: vote cast and removal
//   - handlers_sync.go: on-demand sync
//   - handlers_browse.go: artist, show and venue reads with refresh-on-read
//   - handlers_cron.go: scheduled queue jobs
//   - handlers_admin.go: queue administration and performance stats
//   - handlers_health.go: liveness and readiness
type Handler struct {
	config       *config.Config
	store        Store
	syncer       Syncer
	queue        Queue
	ticketmaster TicketmasterProxy
	auth         *auth.Middleware
	publisher    VotePublisher
	perfMon      *middleware.PerformanceMonitor
	proxyCache   *cache.Cache
	now          func() time.Time
	startTime    time.Time
}

// NewHandler creates the API handler.
//
// Example:
//
//	handler := api.NewHandler(api.Deps{Config: cfg, Store: db, ...})
//	router := api.NewRouter(handler, hub, authMW, authzMW)
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
func NewHandler(d Deps) *Handler {
	now := d.Clock
	if now == nil {
		now = time.Now
	}

	ttl := d.Config.Ticketmaster.CacheTTL
	if ttl <= 0 {
		ttl = ticketmasterCacheTTL
	}

	return &Handler{
		config:       d.Config,
		store:        d.Store,
		syncer:       d.Syncer,
		queue:        d.Queue,
		ticketmaster: d.Ticketmaster,
		auth:         d.Auth,
		publisher:    d.Publisher,
		perfMon:      d.PerfMon,
		proxyCache:   cache.New(ttl, cache.Options{Name: "ticketmaster", Capacity: 1000, Now: now}),
		now:          now,
		startTime:    now(),
	}
}

// Close releases background resources held by the handler.
func (h *Handler) Close() {
	h.proxyCache.Close()
}

// voter resolves who is voting: the session user, or the anonymous visitor.
func (h *Handler) voter(w http.ResponseWriter, r *http.Request) models.Voter {
	if h.auth == nil {
		return models.Voter{}
	}
	return h.auth.Voter(w, r)
}
