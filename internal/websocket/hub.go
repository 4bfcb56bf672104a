// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package websocket

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/theset/internal/events"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeVoteUpdate = "vote_update"
	MessageTypeShowSynced = "show_synced"
	MessageTypeSubscribe  = "subscribe"
	MessageTypeSubscribed = "subscribed"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// maxShowIDLength bounds the show id a client may subscribe to.
const maxShowIDLength = 64

// Message is the envelope of every frame. ShowID scopes a broadcast to the
// clients watching that show; an empty ShowID reaches every client.
type Message struct {
	Type   string      `json:"type"`
	ShowID string      `json:"showId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// VoteUpdateData is the payload of a vote_update message.
type VoteUpdateData struct {
	SongID    string `json:"songId"`
	VoteCount int    `json:"voteCount"`
	Action    string `json:"action"`
	At        string `json:"at"`
}

// ShowSyncedData is the payload of a show_synced message.
type ShowSyncedData struct {
	EntityType string `json:"entityType"`
	SyncedAt   string `json:"syncedAt"`
}

// Hub tracks connected clients and fans vote updates out to the clients
// watching the affected show.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	allowedOrigins []string
}

// NewHub creates a hub. allowedOrigins is the CORS allow-list used for the
// upgrade origin check; "*" allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		broadcast:      make(chan Message, 256),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		clients:        make(map[*Client]bool),
		allowedOrigins: allowedOrigins,
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client and returns ctx.Err().
//
// Lifecycle events are drained before broadcasts so a client registered
// before a broadcast was queued receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Int("total_clients", total).Str("show_id", c.ShowID()).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Debug().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// removeLocked drops c and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := h.sortedClientsLocked()
	for _, c := range clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// sortedClientsLocked returns clients in connection order.
func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message to every matching client. A client
// whose send buffer is full is disconnected.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedClientsLocked() {
		if message.ShowID != "" && c.ShowID() != message.ShowID {
			continue
		}
		select {
		case c.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSDropped.Inc()
			h.removeLocked(c)
		}
	}
}

// Broadcast queues message for delivery. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// HandleVoteUpdated forwards a vote.updated event to the show's watchers.
func (h *Hub) HandleVoteUpdated(_ context.Context, ev *events.VoteUpdated) error {
	if ev.ShowID == "" {
		return nil
	}
	h.Broadcast(Message{
		Type:   MessageTypeVoteUpdate,
		ShowID: ev.ShowID,
		Data: VoteUpdateData{
			SongID:    ev.SongID,
			VoteCount: ev.VoteCount,
			Action:    ev.Action,
			At:        ev.At.UTC().Format(time.RFC3339),
		},
	})
	return nil
}

// HandleEntitySynced tells watchers of every show touched by a sync to reload.
func (h *Hub) HandleEntitySynced(_ context.Context, ev *events.EntitySynced) error {
	for _, showID := range ev.ShowIDs {
		h.Broadcast(Message{
			Type:   MessageTypeShowSynced,
			ShowID: showID,
			Data: ShowSyncedData{
				EntityType: ev.EntityType,
				SyncedAt:   ev.SyncedAt.UTC().Format(time.RFC3339),
			},
		})
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ShowClientCount returns the number of clients watching showID.
func (h *Hub) ShowClientCount(showID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.ShowID() == showID {
			n++
		}
	}
	return n
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin rejects upgrades without an Origin header or from an origin
// outside the allow-list.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ServeWS upgrades the request and registers a client subscribed to the
// showId query parameter, which may be empty.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	showID := strings.TrimSpace(r.URL.Query().Get("showId"))
	if len(showID) > maxShowIDLength {
		http.Error(w, "invalid showId", http.StatusBadRequest)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(h, conn, showID)
	select {
	case h.Register <- client:
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	client.Start()
}

func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
