// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/models"
)

// mockStore is an in-memory Store keyed by id and Ticketmaster id.
type mockStore struct {
	mu       sync.Mutex
	artists  map[string]*models.Artist
	shows    map[string]*models.Show
	venues   map[string]*models.Venue
	setlists map[string]*models.Setlist // by show id

	applied  []*models.Bundle
	applyErr error
	result   *models.ReconcileResult

	// onApply runs inside ApplyBundle, so tests can make the re-read see the write.
	onApply func(b *models.Bundle)
}

func newMockStore() *mockStore {
	return &mockStore{
		artists:  map[string]*models.Artist{},
		shows:    map[string]*models.Show{},
		venues:   map[string]*models.Venue{},
		setlists: map[string]*models.Setlist{},
	}
}

func (m *mockStore) addArtist(a *models.Artist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artists[a.ID] = a
}

func (m *mockStore) addShow(s *models.Show) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows[s.ID] = s
}

func (m *mockStore) addVenue(v *models.Venue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues[v.ID] = v
}

func (m *mockStore) addSetlist(sl *models.Setlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setlists[sl.ShowID] = sl
}

func (m *mockStore) appliedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

func (m *mockStore) FindArtist(_ context.Context, id, tmID, spotifyID string) (*models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.artists {
		if (id != "" && a.ID == id) || (tmID != "" && a.TicketmasterID == tmID) || (spotifyID != "" && a.SpotifyID == spotifyID) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, database.ErrArtistNotFound
}

func (m *mockStore) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	if id == "" {
		return nil, database.ErrArtistNotFound
	}
	return m.FindArtist(ctx, id, "", "")
}

func (m *mockStore) FindShow(_ context.Context, id, tmID string) (*models.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shows {
		if (id != "" && s.ID == id) || (tmID != "" && s.TicketmasterID == tmID) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, database.ErrShowNotFound
}

func (m *mockStore) FindVenue(_ context.Context, id, tmID string) (*models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.venues {
		if (id != "" && v.ID == id) || (tmID != "" && v.TicketmasterID == tmID) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, database.ErrVenueNotFound
}

func (m *mockStore) GetShowDetail(ctx context.Context, id string) (*models.Show, error) {
	return m.FindShow(ctx, id, "")
}

func (m *mockStore) GetSetlistByShow(_ context.Context, showID string) (*models.Setlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.setlists[showID]
	if !ok {
		return nil, database.ErrSetlistNotFound
	}
	cp := *sl
	return &cp, nil
}

func (m *mockStore) ApplyBundle(_ context.Context, b *models.Bundle) (*models.ReconcileResult, error) {
	m.mu.Lock()
	m.applied = append(m.applied, b)
	applyErr, result, onApply := m.applyErr, m.result, m.onApply
	m.mu.Unlock()

	if applyErr != nil {
		return nil, applyErr
	}
	if onApply != nil {
		onApply(b)
	}
	if result == nil {
		result = models.NewReconcileResult()
	}
	return result, nil
}

// stubSource returns a fixed bundle and counts calls.
type stubSource struct {
	mu     sync.Mutex
	bundle *models.Bundle
	err    error
	calls  int
	delay  time.Duration
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, _ *Request) (*models.Bundle, error) {
	s.mu.Lock()
	s.calls++
	bundle, err, delay := s.bundle, s.err, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return bundle, err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.EntitySynced
}

func (p *recordingPublisher) PublishEntitySynced(_ context.Context, ev *events.EntitySynced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// mockQueue is an in-memory QueueStore.
type mockQueue struct {
	mu            sync.Mutex
	tasks         []models.SyncTask
	enqueued      []database.EnqueueParams
	completed     []string
	failed        map[string]string
	abandoned     map[string]string
	retryable     bool
	staleArtists  []models.Artist
	staleShows    []models.Show
	trendingShows []models.Show
	cleanedUp     int

	// lostLeases lists tasks re-claimed by another worker.
	lostLeases map[string]bool
	outcomeBy  []string
}

func newMockQueue() *mockQueue {
	return &mockQueue{failed: map[string]string{}, abandoned: map[string]string{}, lostLeases: map[string]bool{}}
}

func (q *mockQueue) EnqueueTask(_ context.Context, p database.EnqueueParams) (*models.SyncTask, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.enqueued {
		if e.EntityType == p.EntityType && e.EntityID == p.EntityID && e.TicketmasterID == p.TicketmasterID {
			return &models.SyncTask{EntityType: p.EntityType, EntityID: p.EntityID}, false, nil
		}
	}
	q.enqueued = append(q.enqueued, p)
	return &models.SyncTask{EntityType: p.EntityType, EntityID: p.EntityID, Priority: p.Priority}, true, nil
}

func (q *mockQueue) ClaimTasks(_ context.Context, workerID string, n int) ([]models.SyncTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.tasks) {
		n = len(q.tasks)
	}
	claimed := append([]models.SyncTask(nil), q.tasks[:n]...)
	q.tasks = q.tasks[n:]
	for i := range claimed {
		claimed[i].WorkerID = workerID
		claimed[i].Status = models.TaskProcessing
		claimed[i].Attempts++
	}
	return claimed, nil
}

func (q *mockQueue) CompleteTask(_ context.Context, id, workerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outcomeBy = append(q.outcomeBy, workerID)
	if q.lostLeases[id] {
		return database.ErrLeaseLost
	}
	q.completed = append(q.completed, id)
	return nil
}

func (q *mockQueue) FailTask(_ context.Context, id, workerID, lastError string, _ time.Duration) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outcomeBy = append(q.outcomeBy, workerID)
	if q.lostLeases[id] {
		return false, database.ErrLeaseLost
	}
	q.failed[id] = lastError
	return q.retryable, nil
}

func (q *mockQueue) AbandonTask(_ context.Context, id, workerID, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outcomeBy = append(q.outcomeBy, workerID)
	if q.lostLeases[id] {
		return database.ErrLeaseLost
	}
	q.abandoned[id] = lastError
	return nil
}

func (q *mockQueue) ReleaseExpired(context.Context, time.Duration) (int, error) {
	return 0, nil
}

func (q *mockQueue) CleanupTasks(context.Context, time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cleanedUp, nil
}

func (q *mockQueue) QueueStats(context.Context) (models.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return models.QueueStats{Pending: len(q.tasks), Completed: len(q.completed)}, nil
}

func (q *mockQueue) ListStaleArtists(context.Context, time.Time, int) ([]models.Artist, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.staleArtists, nil
}

func (q *mockQueue) ListStaleShows(context.Context, time.Time, time.Time, int) ([]models.Show, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.staleShows, nil
}

func (q *mockQueue) ListTrendingShows(context.Context, time.Time, int) ([]models.Show, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.trendingShows, nil
}

// stubSyncer returns err for ids in failures, success otherwise.
type stubSyncer struct {
	mu       sync.Mutex
	failures map[string]error
	seen     []*Request
}

func (s *stubSyncer) Sync(_ context.Context, req *Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, req)
	if err := s.failures[req.Identifier()]; err != nil {
		return nil, err
	}
	return &Result{Success: true, EntityType: req.EntityType}, nil
}
