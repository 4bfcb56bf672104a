// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/authz"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/middleware"
	"github.com/tomtom215/theset/internal/models"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

const (
	testJWTSecret  = "test-jwt-secret-with-enough-length"
	testAppSecret  = "test-app-secret-with-enough-length"
	testCronSecret = "test-cron-secret"

	artistID = "11111111-1111-4111-8111-111111111111"
	showID   = "22222222-2222-4222-8222-222222222222"
	venueID  = "33333333-3333-4333-8333-333333333333"
	songID   = "44444444-4444-4444-8444-444444444444"
	listID   = "55555555-5555-4555-8555-555555555555"
)

// testNow is the fixed clock of every handler test.
var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// mockStore is an in-memory Store guarded by a mutex.
type mockStore struct {
	mu sync.Mutex

	pingErr  error
	artists  map[string]*models.Artist
	shows    map[string]*models.Show
	venues   map[string]*models.Venue
	setlists map[string]*models.Setlist // by show id
	votes    map[string]map[string]bool // song id -> voter key

	castErr    error
	lastFilter database.ShowFilter
	lastList   database.ListParams
	castVoters []models.Voter
}

func newMockStore() *mockStore {
	return &mockStore{
		artists:  map[string]*models.Artist{},
		shows:    map[string]*models.Show{},
		venues:   map[string]*models.Venue{},
		setlists: map[string]*models.Setlist{},
		votes:    map[string]map[string]bool{},
	}
}

func (m *mockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *mockStore) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.artists[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, database.ErrArtistNotFound
}

func (m *mockStore) ListArtists(ctx context.Context, p database.ListParams) ([]models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = p
	out := []models.Artist{}
	for _, a := range m.artists {
		out = append(out, *a)
	}
	if len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (m *mockStore) GetShowDetail(ctx context.Context, id string) (*models.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, database.ErrShowNotFound
}

func (m *mockStore) ListShows(ctx context.Context, f database.ShowFilter) ([]models.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	out := []models.Show{}
	for _, s := range m.shows {
		if f.ArtistID != "" && s.ArtistID != f.ArtistID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStore) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.venues[id]; ok {
		return v, nil
	}
	return nil, database.ErrVenueNotFound
}

func (m *mockStore) GetSetlistByShow(ctx context.Context, id string) (*models.Setlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.setlists[id]; ok {
		return s, nil
	}
	return nil, database.ErrSetlistNotFound
}

func (m *mockStore) CastVote(ctx context.Context, song string, voter models.Voter, anonLimit int) (*models.VoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.castVoters = append(m.castVoters, voter)
	if m.castErr != nil {
		return nil, m.castErr
	}
	if song != songID {
		return nil, database.ErrSongNotFound
	}
	if m.votes[song] == nil {
		m.votes[song] = map[string]bool{}
	}
	if m.votes[song][voter.Key()] {
		return nil, database.ErrDuplicateVote
	}
	m.votes[song][voter.Key()] = true
	return &models.VoteResult{SongID: song, VoteCount: len(m.votes[song]), ShowID: showID}, nil
}

func (m *mockStore) RemoveVote(ctx context.Context, song string, voter models.Voter) (*models.VoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.votes[song][voter.Key()] {
		return nil, database.ErrVoteNotFound
	}
	delete(m.votes[song], voter.Key())
	return &models.VoteResult{SongID: song, VoteCount: len(m.votes[song]), ShowID: showID}, nil
}

func (m *mockStore) VotedSongIDs(ctx context.Context, setlistID string, voter models.Voter) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for song, voters := range m.votes {
		if voters[voter.Key()] {
			ids = append(ids, song)
		}
	}
	return ids, nil
}

// mockSyncer records sync requests and runs an optional hook.
type mockSyncer struct {
	mu       sync.Mutex
	requests []*syncpkg.Request
	err      error
	onSync   func(req *syncpkg.Request)
	result   *syncpkg.Result
}

func (m *mockSyncer) Sync(ctx context.Context, req *syncpkg.Request) (*syncpkg.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err, hook, result := m.err, m.onSync, m.result
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if hook != nil {
		hook(req)
	}
	if result != nil {
		return result, nil
	}
	return &syncpkg.Result{Success: true, EntityType: req.EntityType, EntityID: req.EntityID, Source: "mock"}, nil
}

func (m *mockSyncer) Staleness() *syncpkg.Staleness {
	return syncpkg.NewStaleness(func() time.Time { return testNow })
}

func (m *mockSyncer) SourceName() string { return "mock" }

func (m *mockSyncer) calls() []*syncpkg.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*syncpkg.Request(nil), m.requests...)
}

// mockQueue records queue operations.
type mockQueue struct {
	mu       sync.Mutex
	ops      []string
	enqueued []*syncpkg.Request
	priority int
	created  bool
	err      error
}

func (m *mockQueue) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	return m.err
}

func (m *mockQueue) Enqueue(ctx context.Context, req *syncpkg.Request, priority int) (*models.SyncTask, bool, error) {
	if err := m.record("enqueue"); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, req)
	m.priority = priority
	return &models.SyncTask{ID: "task-1", EntityType: string(req.EntityType), Priority: priority, Status: models.TaskPending}, m.created, nil
}

func (m *mockQueue) ProcessBatch(ctx context.Context) (*syncpkg.BatchResult, error) {
	if err := m.record("process"); err != nil {
		return nil, err
	}
	return &syncpkg.BatchResult{Claimed: 2, Completed: 2}, nil
}

func (m *mockQueue) RefreshStale(ctx context.Context) (*syncpkg.EnqueueResult, error) {
	if err := m.record("refresh-stale"); err != nil {
		return nil, err
	}
	return &syncpkg.EnqueueResult{Considered: 3, Enqueued: 3}, nil
}

func (m *mockQueue) SyncTrending(ctx context.Context) (*syncpkg.EnqueueResult, error) {
	if err := m.record("trending"); err != nil {
		return nil, err
	}
	return &syncpkg.EnqueueResult{Considered: 5, Enqueued: 4, Merged: 1}, nil
}

func (m *mockQueue) Cleanup(ctx context.Context) (*syncpkg.CleanupResult, error) {
	if err := m.record("cleanup"); err != nil {
		return nil, err
	}
	return &syncpkg.CleanupResult{Deleted: 7}, nil
}

func (m *mockQueue) Stats(ctx context.Context) (models.QueueStats, error) {
	if err := m.record("stats"); err != nil {
		return models.QueueStats{}, err
	}
	return models.QueueStats{Pending: 4, Processing: 1, Completed: 10, Failed: 2}, nil
}

func (m *mockQueue) operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// mockTicketmaster returns canned raw responses.
type mockTicketmaster struct {
	mu       sync.Mutex
	calls    int
	endpoint string
	params   url.Values
	resp     *syncpkg.RawResponse
	err      error
}

func (m *mockTicketmaster) Raw(ctx context.Context, endpoint string, params url.Values) (*syncpkg.RawResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.endpoint = endpoint
	m.params = params
	return m.resp, m.err
}

func (m *mockTicketmaster) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPublisher collects vote events.
type mockPublisher struct {
	mu     sync.Mutex
	events []*events.VoteUpdated
}

func (m *mockPublisher) PublishVoteUpdated(ctx context.Context, ev *events.VoteUpdated) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) published() []*events.VoteUpdated {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.VoteUpdated(nil), m.events...)
}

type testEnv struct {
	store     *mockStore
	syncer    *mockSyncer
	queue     *mockQueue
	tm        *mockTicketmaster
	publisher *mockPublisher
	handler   *Handler
	router    http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Supabase: config.SupabaseConfig{JWTSecret: testJWTSecret},
		Sync:     config.SyncConfig{ReadTimeout: time.Second},
		Votes:    config.VotesConfig{AnonymousLimit: 3, CookieName: "theset_visitor"},
		Security: config.SecurityConfig{
			CronSecret:        testCronSecret,
			AppSecret:         testAppSecret,
			CORSOrigins:       []string{"https://theset.live"},
			RateLimitDisabled: true,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith builds an environment after applying mutate to the config.
func newTestEnvWith(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	visitors, err := auth.NewVisitorIdentity(cfg.Security.AppSecret, &cfg.Votes)
	if err != nil {
		t.Fatalf("NewVisitorIdentity() error = %v", err)
	}
	authMW := auth.NewMiddleware(
		auth.NewSessionVerifier(&cfg.Supabase),
		visitors,
		auth.NewCronAuth(cfg.Security.CronSecret),
	)
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	env := &testEnv{
		store:     newMockStore(),
		syncer:    &mockSyncer{},
		queue:     &mockQueue{created: true},
		tm:        &mockTicketmaster{},
		publisher: &mockPublisher{},
	}
	env.handler = NewHandler(Deps{
		Config:       cfg,
		Store:        env.store,
		Syncer:       env.syncer,
		Queue:        env.queue,
		Ticketmaster: env.tm,
		Auth:         authMW,
		Publisher:    env.publisher,
		PerfMon:      middleware.NewPerformanceMonitor(100),
		Clock:        func() time.Time { return testNow },
	})
	t.Cleanup(env.handler.Close)

	chiMW := NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&cfg.Security))
	env.router = NewRouter(env.handler, chiMW, authMW, authz.NewMiddleware(enforcer), nil).SetupChi()
	return env
}

// do sends a request through the full router.
func (e *testEnv) do(t *testing.T, method, target string, body interface{}, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// withSession authenticates the request as user with the given app roles.
func withSession(t *testing.T, user string, roles ...string) func(*http.Request) {
	t.Helper()
	claims := &auth.SessionClaims{
		Email:       user + "@example.com",
		Role:        "authenticated",
		AppMetadata: auth.AppMetadata{Roles: roles},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withHeader(key, value string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// decodeResponse parses the standard envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return out
}

func dataMap(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data = %#v, want object", body["data"])
	}
	return data
}

var errBoom = apperr.SyncFailure("Sync failed", nil)
