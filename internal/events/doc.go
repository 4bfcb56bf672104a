// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package events is the in-process event bus.

Producers publish typed events (entity.synced after a reconcile, vote.updated
after a vote is cast or removed) onto a Watermill GoChannel pub/sub. Consumers
register handlers on the bus router before it starts; the websocket hub uses
vote.updated to push live counts to clients watching a show.

Delivery is at-most-once and process-local. Nothing is replayed after a
restart, so events carry the full state a consumer needs (the new vote count,
not a delta).

Usage:

	bus, err := events.NewBus(events.DefaultConfig())
	if err != nil {
		return err
	}
	bus.OnVoteUpdated("websocket-broadcast", func(ctx context.Context, ev *events.VoteUpdated) error {
		hub.BroadcastVote(ev)
		return nil
	})
	go bus.Run(ctx)
*/
package events
