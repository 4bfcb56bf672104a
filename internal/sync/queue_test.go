// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/models"
)

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		QueueBatchSize: 10,
		MaxAttempts:    3,
		RetryDelay:     time.Second,
		LeaseTimeout:   5 * time.Minute,
		Retention:      7 * 24 * time.Hour,
		StaleBatchSize: 50,
		TrendingSize:   10,
	}
}

func TestWorker_ProcessBatch(t *testing.T) {
	q := newMockQueue()
	q.retryable = true
	q.tasks = []models.SyncTask{
		{ID: "t1", EntityType: "show", TicketmasterID: "ok-show"},
		{ID: "t2", EntityType: "show", TicketmasterID: "flaky-show"},
		{ID: "t3", EntityType: "bogus", TicketmasterID: "x"},
	}
	syncer := &stubSyncer{failures: map[string]error{
		"flaky-show": apperr.SyncFailure("Sync failed", errors.New("timeout")),
	}}

	w := NewWorker(q, syncer, testSyncConfig(), func() time.Time { return testNow })
	res, err := w.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if res.Claimed != 3 {
		t.Errorf("Claimed = %d, want 3", res.Claimed)
	}
	if res.Completed != 1 || res.Retried != 1 || res.Failed != 1 {
		t.Errorf("result = %+v, want 1 completed, 1 retried, 1 failed", res)
	}
	if len(q.completed) != 1 || q.completed[0] != "t1" {
		t.Errorf("completed = %v, want [t1]", q.completed)
	}
	if _, ok := q.failed["t2"]; !ok {
		t.Error("t2 should be recorded as a retryable failure")
	}
	if msg, ok := q.abandoned["t3"]; !ok || !strings.Contains(msg, "Invalid entity type") {
		t.Errorf("abandoned[t3] = %q, want invalid entity type", msg)
	}
	if len(syncer.seen) != 2 {
		t.Errorf("Sync calls = %d, want 2 (invalid task never reaches the syncer)", len(syncer.seen))
	}
}

func TestWorker_ProcessBatchLeaseLost(t *testing.T) {
	q := newMockQueue()
	q.retryable = true
	q.tasks = []models.SyncTask{
		{ID: "t1", EntityType: "show", TicketmasterID: "slow-show"},
		{ID: "t2", EntityType: "show", TicketmasterID: "flaky-show"},
	}
	q.lostLeases["t1"] = true
	q.lostLeases["t2"] = true
	syncer := &stubSyncer{failures: map[string]error{
		"flaky-show": apperr.SyncFailure("Sync failed", errors.New("timeout")),
	}}

	w := NewWorker(q, syncer, testSyncConfig(), nil)
	res, err := w.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if res.LeaseLost != 2 || res.Completed != 0 || res.Retried != 0 {
		t.Errorf("result = %+v, want both outcomes discarded as lease lost", res)
	}
	if len(q.completed) != 0 || len(q.failed) != 0 {
		t.Errorf("completed = %v, failed = %v, want nothing recorded", q.completed, q.failed)
	}
	for _, id := range q.outcomeBy {
		if id != w.ID() {
			t.Errorf("outcome recorded by %q, want the claiming worker %q", id, w.ID())
		}
	}
}

func TestWorker_ProcessBatchExhaustedRetries(t *testing.T) {
	q := newMockQueue()
	q.retryable = false
	q.tasks = []models.SyncTask{{ID: "t1", EntityType: "artist", TicketmasterID: "K8vZ917G7x0"}}
	syncer := &stubSyncer{failures: map[string]error{"K8vZ917G7x0": errors.New("boom")}}

	w := NewWorker(q, syncer, testSyncConfig(), nil)
	res, err := w.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	if q.failed["t1"] != "boom" {
		t.Errorf("last error = %q, want boom", q.failed["t1"])
	}
}

func TestWorker_FailureMessageTruncated(t *testing.T) {
	q := newMockQueue()
	q.tasks = []models.SyncTask{{ID: "t1", EntityType: "artist", TicketmasterID: "K8vZ917G7x0"}}
	syncer := &stubSyncer{failures: map[string]error{"K8vZ917G7x0": errors.New(strings.Repeat("x", 5000))}}

	w := NewWorker(q, syncer, testSyncConfig(), nil)
	if _, err := w.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if got := len(q.failed["t1"]); got != 1000 {
		t.Errorf("len(last error) = %d, want 1000", got)
	}
}

func TestWorker_RefreshStale(t *testing.T) {
	q := newMockQueue()
	q.staleArtists = []models.Artist{{ID: "a1", TicketmasterID: "K1"}, {ID: "a2", TicketmasterID: "K2"}}
	q.staleShows = []models.Show{{ID: "s1", TicketmasterID: "E1"}}

	w := NewWorker(q, &stubSyncer{}, testSyncConfig(), func() time.Time { return testNow })
	res, err := w.RefreshStale(context.Background())
	if err != nil {
		t.Fatalf("RefreshStale() error = %v", err)
	}
	if res.Considered != 3 || res.Enqueued != 3 {
		t.Errorf("result = %+v, want 3 considered and enqueued", res)
	}
	for _, p := range q.enqueued {
		if p.Priority != models.PriorityLow {
			t.Errorf("priority = %d, want low", p.Priority)
		}
		if p.MaxAttempts != 3 {
			t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
		}
	}

	// A second run merges into the tasks already queued.
	res, err = w.RefreshStale(context.Background())
	if err != nil {
		t.Fatalf("RefreshStale() error = %v", err)
	}
	if res.Enqueued != 0 || res.Merged != 3 {
		t.Errorf("second run = %+v, want 3 merged", res)
	}
}

func TestWorker_SyncTrending(t *testing.T) {
	q := newMockQueue()
	q.trendingShows = []models.Show{{ID: "s1", TicketmasterID: "E1"}, {ID: "s2", TicketmasterID: "E2"}}

	w := NewWorker(q, &stubSyncer{}, testSyncConfig(), func() time.Time { return testNow })
	res, err := w.SyncTrending(context.Background())
	if err != nil {
		t.Fatalf("SyncTrending() error = %v", err)
	}
	if res.Considered != 2 || res.Enqueued != 4 {
		t.Errorf("result = %+v, want 2 shows and 4 tasks", res)
	}

	types := map[string]int{}
	for _, p := range q.enqueued {
		types[p.EntityType]++
		if p.Priority != models.PriorityHigh {
			t.Errorf("priority = %d, want high", p.Priority)
		}
		if !p.Options.ForceRefresh || !p.Options.SkipDependencies {
			t.Errorf("options = %+v, want forced and dependency-free", p.Options)
		}
	}
	if types["show"] != 2 || types["setlist"] != 2 {
		t.Errorf("task types = %v, want 2 show and 2 setlist", types)
	}
}

func TestWorker_EnqueueAndCleanup(t *testing.T) {
	q := newMockQueue()
	q.cleanedUp = 7

	w := NewWorker(q, &stubSyncer{}, testSyncConfig(), nil)
	_, created, err := w.Enqueue(context.Background(), &Request{EntityType: EntityArtist, TicketmasterID: "K1"}, models.PriorityNormal)
	if err != nil || !created {
		t.Fatalf("Enqueue() = %v, %v, want created", created, err)
	}
	if q.enqueued[0].EntityType != "artist" || q.enqueued[0].Priority != models.PriorityNormal {
		t.Errorf("enqueued = %+v", q.enqueued[0])
	}

	res, err := w.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if res.Deleted != 7 {
		t.Errorf("Deleted = %d, want 7", res.Deleted)
	}

	if !strings.Contains(w.ID(), "-") {
		t.Errorf("ID() = %q, want host-suffix form", w.ID())
	}
}
