// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/models"
)

// testDBSemaphore serializes DuckDB test databases. The semaphore is held for
// the whole test because concurrent CGO calls from parallel tests can hang
// under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

// testClock is a settable store clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupTestDB creates an in-memory database with a fixed clock.
func setupTestDB(t *testing.T) (*DB, *testClock) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := New(cfg)
		resultCh <- result{db: db, err: err}
	}()

	var db *DB
	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		db = res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
	}

	clock := newTestClock()
	db.SetClock(clock.Now)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db, clock
}

// sampleBundle is an artist with one upcoming show at one venue and a
// three-song setlist.
func sampleBundle() *models.Bundle {
	return &models.Bundle{
		Artist: &models.BundleArtist{
			TicketmasterID: "K8vZ917G7x0",
			SpotifyID:      "4Z8W4fKeB5YxbusRsdQVPb",
			Name:           "Radiohead",
			Genres:         []string{"alternative rock", "art rock"},
			Popularity:     79,
			Followers:      9000000,
			StoredSongs: []models.TrackSummary{
				{ID: "t1", Name: "Creep"},
				{ID: "t2", Name: "Karma Police"},
			},
		},
		Shows: []models.BundleShow{
			{
				TicketmasterID: "vvG1YZ9pMkN3aB",
				Name:           "Radiohead Live",
				Date:           time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
				TicketURL:      "https://www.ticketmaster.com/event/vvG1YZ9pMkN3aB",
				Status:         "onsale",
				Popularity:     50,
				Venue: &models.BundleVenue{
					TicketmasterID: "KovZpZAEdFtJ",
					Name:           "Madison Square Garden",
					City:           "New York",
					State:          "NY",
					Country:        "US",
				},
			},
		},
		Setlists: []models.BundleSetlist{
			{
				ShowTicketmasterID: "vvG1YZ9pMkN3aB",
				Source:             models.SetlistSourcePredicted,
				Songs:              []string{"Creep", "Karma Police", "No Surprises"},
			},
		},
	}
}

// seedSetlist applies sampleBundle and returns the setlist with its songs.
func seedSetlist(t *testing.T, db *DB) (*models.ReconcileResult, *models.Setlist) {
	t.Helper()
	ctx := context.Background()

	res, err := db.ApplyBundle(ctx, sampleBundle())
	if err != nil {
		t.Fatalf("ApplyBundle() error = %v", err)
	}
	showID := res.ShowIDs["vvG1YZ9pMkN3aB"]
	sl, err := db.GetSetlistByShow(ctx, showID)
	if err != nil {
		t.Fatalf("GetSetlistByShow() error = %v", err)
	}
	if len(sl.Songs) != 3 {
		t.Fatalf("len(Songs) = %d, want 3", len(sl.Songs))
	}
	return res, sl
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
