// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/models"
)

func startBus(t *testing.T, register func(b *Bus)) *Bus {
	t.Helper()

	cfg := DefaultConfig()
	cfg.CloseTimeout = time.Second
	bus, err := NewBus(cfg)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	register(bus)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
	})

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not start")
	}
	return bus
}

func TestBus_VoteUpdatedRoundTrip(t *testing.T) {
	got := make(chan *VoteUpdated, 1)
	gotCorrelation := make(chan string, 1)

	bus := startBus(t, func(b *Bus) {
		b.OnVoteUpdated("test-votes", func(ctx context.Context, ev *VoteUpdated) error {
			gotCorrelation <- logging.CorrelationIDFromContext(ctx)
			got <- ev
			return nil
		})
	})

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	err := bus.PublishVoteUpdated(ctx, &VoteUpdated{
		ShowID:    "show-1",
		SongID:    "song-1",
		VoteCount: 4,
		Action:    VoteActionCast,
	})
	if err != nil {
		t.Fatalf("PublishVoteUpdated() error = %v", err)
	}

	select {
	case ev := <-got:
		if ev.ShowID != "show-1" || ev.SongID != "song-1" || ev.VoteCount != 4 {
			t.Errorf("event = %+v, want show-1/song-1/4", ev)
		}
		if ev.Action != VoteActionCast {
			t.Errorf("Action = %q, want %q", ev.Action, VoteActionCast)
		}
		if ev.At.IsZero() {
			t.Error("At should be stamped on publish")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("vote.updated was not delivered")
	}

	if id := <-gotCorrelation; id != "corr-1" {
		t.Errorf("correlation id = %q, want corr-1", id)
	}
}

func TestBus_EntitySyncedRoundTrip(t *testing.T) {
	got := make(chan *EntitySynced, 1)

	bus := startBus(t, func(b *Bus) {
		b.OnEntitySynced("test-synced", func(_ context.Context, ev *EntitySynced) error {
			got <- ev
			return nil
		})
	})

	err := bus.PublishEntitySynced(context.Background(), &EntitySynced{
		EntityType: "show",
		EntityID:   "show-1",
		Source:     "direct",
		Tables:     map[string]models.TableCounts{"shows": {Created: 1}},
		ShowIDs:    []string{"show-1"},
		SyncedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("PublishEntitySynced() error = %v", err)
	}

	select {
	case ev := <-got:
		if ev.EntityID != "show-1" {
			t.Errorf("EntityID = %q, want show-1", ev.EntityID)
		}
		if ev.Tables["shows"].Created != 1 {
			t.Errorf("Tables[shows].Created = %d, want 1", ev.Tables["shows"].Created)
		}
		if len(ev.ShowIDs) != 1 {
			t.Errorf("ShowIDs = %v, want one id", ev.ShowIDs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("entity.synced was not delivered")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus, err := NewBus(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	err = bus.PublishVoteUpdated(context.Background(), &VoteUpdated{SongID: "s"})
	if !errors.Is(err, ErrBusClosed) {
		t.Errorf("PublishVoteUpdated() after Close error = %v, want ErrBusClosed", err)
	}
}
