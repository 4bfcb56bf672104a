// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package websocket pushes live vote counts to the browsers watching a show.

Clients connect to GET /api/ws?showId=<id> and receive JSON frames:

	{"type":"vote_update","showId":"...","data":{"songId":"...","voteCount":4,"action":"cast","at":"..."}}
	{"type":"show_synced","showId":"...","data":{"entityType":"show","syncedAt":"..."}}

A client switches shows with {"type":"subscribe","showId":"..."} and is
answered with a "subscribed" frame; {"type":"ping"} is answered with "pong".

The hub is fed from the event bus:

	hub := websocket.NewHub(cfg.Security.CORSOrigins)
	bus.OnVoteUpdated("websocket-votes", hub.HandleVoteUpdated)
	bus.OnEntitySynced("websocket-syncs", hub.HandleEntitySynced)

and runs under the supervisor through RunWithContext. Delivery is best
effort: a client that cannot keep up is disconnected rather than slowing the
broadcast for everyone else.
*/
package websocket
