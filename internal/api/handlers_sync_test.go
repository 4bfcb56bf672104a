// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"testing"

	syncpkg "github.com/tomtom215/theset/internal/sync"
)

func TestSync_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantError string
	}{
		{"unknown type", map[string]interface{}{"entityType": "festival", "entityId": artistID}, "Invalid entity type: festival"},
		{"artist without ids", map[string]interface{}{"entityType": "artist"}, "Artist sync requires entityId or ticketmasterId"},
		{"bad entity id", map[string]interface{}{"entityType": "show", "entityId": "not-a-uuid"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/sync", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			body := decodeResponse(t, rec)
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if len(env.syncer.calls()) != 0 {
				t.Error("syncer called for an invalid request")
			}
		})
	}
}

func TestSync_PassesResultThrough(t *testing.T) {
	env := newTestEnv(t)
	env.syncer.result = &syncpkg.Result{
		Success:    true,
		EntityType: syncpkg.EntityArtist,
		EntityID:   artistID,
		Source:     "remote",
		Data:       map[string]interface{}{"name": "Radiohead"},
	}

	rec := env.do(t, http.MethodPost, "/api/sync", map[string]interface{}{
		"entityType":     "artist",
		"ticketmasterId": "K8vZ917G7x0",
		"options":        map[string]bool{"forceRefresh": true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["success"] != true || body["entityId"] != artistID || body["source"] != "remote" {
		t.Errorf("body = %v", body)
	}

	calls := env.syncer.calls()
	if len(calls) != 1 {
		t.Fatalf("sync calls = %d", len(calls))
	}
	if calls[0].TicketmasterID != "K8vZ917G7x0" || !calls[0].Options.ForceRefresh {
		t.Errorf("request = %+v", calls[0])
	}
}

func TestSync_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.syncer.err = errBoom

	rec := env.do(t, http.MethodPost, "/api/sync", map[string]interface{}{"entityType": "show", "entityId": showID})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["code"] != "SYNC_FAILED" || body["error"] != "Sync failed" {
		t.Errorf("body = %v", body)
	}
}
