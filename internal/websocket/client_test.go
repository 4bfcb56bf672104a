// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testOrigin = "https://theset.live"

func startHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub([]string{testOrigin})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.RunWithContext(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws" + query
	header := http.Header{"Origin": []string{testOrigin}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_ReceivesShowUpdates(t *testing.T) {
	h, srv := startHubServer(t)
	conn := dial(t, srv, "?showId=show-1")
	waitFor(t, func() bool { return h.ShowClientCount("show-1") == 1 })

	h.Broadcast(Message{Type: MessageTypeVoteUpdate, ShowID: "show-1", Data: VoteUpdateData{SongID: "song-1", VoteCount: 3}})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeVoteUpdate || msg.ShowID != "show-1" {
		t.Fatalf("message = %+v", msg)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["songId"] != "song-1" || data["voteCount"] != float64(3) {
		t.Errorf("data = %#v", msg.Data)
	}
}

func TestClient_SubscribeAndPing(t *testing.T) {
	h, srv := startHubServer(t)
	conn := dial(t, srv, "")
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := conn.WriteJSON(Message{Type: MessageTypeSubscribe, ShowID: "show-9"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeSubscribed || msg.ShowID != "show-9" {
		t.Fatalf("subscribe reply = %+v", msg)
	}
	if h.ShowClientCount("show-9") != 1 {
		t.Error("client should now watch show-9")
	}

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("ping reply = %+v", msg)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	h, srv := startHubServer(t)
	conn := dial(t, srv, "?showId=show-1")
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestServeWS_RejectsBadRequests(t *testing.T) {
	_, srv := startHubServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	if err == nil {
		t.Fatal("Dial() from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin response = %v, want 403", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(url+"?showId="+strings.Repeat("x", 100), http.Header{"Origin": []string{testOrigin}})
	if err == nil {
		t.Fatal("Dial() with an oversized show id succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized show id response = %v, want 400", resp)
	}
}
