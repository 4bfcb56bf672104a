// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/theset/internal/database"
	"github.com/tomtom215/theset/internal/events"
)

func TestCastVote_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	data := dataMap(t, body)
	if data["songId"] != songID || data["voteCount"] != float64(1) {
		t.Errorf("data = %v", data)
	}

	published := env.publisher.published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	ev := published[0]
	if ev.ShowID != showID || ev.SongID != songID || ev.VoteCount != 1 || ev.Action != events.VoteActionCast {
		t.Errorf("event = %+v", ev)
	}
	if !ev.At.Equal(testNow) {
		t.Errorf("event time = %v, want the handler clock", ev.At)
	}
}

func TestCastVote_AnonymousCapPassed(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID})

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	if len(env.store.castVoters) != 1 {
		t.Fatalf("CastVote calls = %d", len(env.store.castVoters))
	}
	voter := env.store.castVoters[0]
	if !voter.IsAnonymous() || voter.AnonymousKey == "" {
		t.Errorf("voter = %+v, want an anonymous visitor key", voter)
	}
}

func TestCastVote_SessionUser(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID}, withSession(t, "user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	if got := env.store.castVoters[0]; got.UserID != "user-1" || got.IsAnonymous() {
		t.Errorf("voter = %+v, want user-1", got)
	}
}

func TestCastVote_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID}, withSession(t, "user-1"))

	rec := env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID}, withSession(t, "user-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeResponse(t, rec)["error"]; got != "Already voted for this song" {
		t.Errorf("error = %v", got)
	}
	if n := len(env.publisher.published()); n != 1 {
		t.Errorf("published %d events, want only the first vote", n)
	}
}

func TestCastVote_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		storeErr   error
		wantStatus int
		wantError  string
	}{
		{"anonymous limit", VoteRequest{SongID: songID}, database.ErrAnonymousLimit, http.StatusForbidden, "Anonymous vote limit reached"},
		{"unknown song", VoteRequest{SongID: "66666666-6666-4666-8666-666666666666"}, nil, http.StatusNotFound, "Song not found in setlist"},
		{"missing song id", map[string]string{}, nil, http.StatusBadRequest, ""},
		{"non uuid song id", VoteRequest{SongID: "abc"}, nil, http.StatusNotFound, "Song not found in setlist"},
		{"oversized song id", VoteRequest{SongID: strings.Repeat("a", 65)}, nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.castErr = tt.storeErr

			rec := env.do(t, http.MethodPost, "/api/vote", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decodeResponse(t, rec)
			if body["success"] != false {
				t.Errorf("success = %v", body["success"])
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if len(env.publisher.published()) != 0 {
				t.Error("rejected vote was published")
			}
		})
	}
}

func TestCastVote_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/vote", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeResponse(t, rec)["error"]; got != "Request body is required" {
		t.Errorf("error = %v", got)
	}
}

func TestRemoveVote(t *testing.T) {
	env := newTestEnv(t)
	session := withSession(t, "user-1")
	env.do(t, http.MethodPost, "/api/vote", VoteRequest{SongID: songID}, session)

	rec := env.do(t, http.MethodDelete, "/api/vote", VoteRequest{SongID: songID}, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data := dataMap(t, decodeResponse(t, rec)); data["voteCount"] != float64(0) {
		t.Errorf("voteCount = %v, want 0", data["voteCount"])
	}

	published := env.publisher.published()
	if len(published) != 2 || published[1].Action != events.VoteActionRemoved {
		t.Errorf("events = %+v", published)
	}

	// Nothing left to remove.
	rec = env.do(t, http.MethodDelete, "/api/vote", VoteRequest{SongID: songID}, session)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", rec.Code)
	}
}
