// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/theset/internal/models"
)

func TestAdmin_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		opts       []func(*http.Request)
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"plain user", []func(*http.Request){withSession(t, "user-1")}, http.StatusForbidden},
		{"admin", []func(*http.Request){withSession(t, "admin-1", "admin")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodGet, "/api/admin/queue", nil, tt.opts...)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAdmin_QueueStats(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/admin/queue", nil, withSession(t, "admin-1", "admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataMap(t, decodeResponse(t, rec))
	if data["pending"] != float64(4) || data["failed"] != float64(2) {
		t.Errorf("data = %v", data)
	}
}

func TestAdmin_EnqueueTask(t *testing.T) {
	env := newTestEnv(t)
	admin := withSession(t, "admin-1", "admin")

	rec := env.do(t, http.MethodPost, "/api/admin/queue", map[string]interface{}{
		"entityType": "artist",
		"entityId":   artistID,
	}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, decodeResponse(t, rec))
	if data["created"] != true {
		t.Errorf("created = %v", data["created"])
	}
	env.queue.mu.Lock()
	priority := env.queue.priority
	env.queue.mu.Unlock()
	if priority != models.PriorityNormal {
		t.Errorf("priority = %d, want the default", priority)
	}

	// A merge into an existing task answers 200.
	env.queue.mu.Lock()
	env.queue.created = false
	env.queue.mu.Unlock()
	rec = env.do(t, http.MethodPost, "/api/admin/queue", map[string]interface{}{
		"entityType": "artist",
		"entityId":   artistID,
		"priority":   4,
	}, admin)
	if rec.Code != http.StatusOK {
		t.Errorf("merge status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/admin/queue", map[string]interface{}{
		"entityType": "artist",
		"entityId":   artistID,
		"priority":   9,
	}, admin)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range priority status = %d, want 400", rec.Code)
	}
}

func TestAdmin_SyncTest(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/admin/sync-test", map[string]interface{}{
		"entityType": "show",
		"entityId":   showID,
	}, withSession(t, "admin-1", "admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["success"] != true || body["requestedBy"] != "admin-1" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["durationMs"]; !ok {
		t.Error("durationMs missing")
	}
}

func TestAdmin_Performance(t *testing.T) {
	env := newTestEnv(t)
	admin := withSession(t, "admin-1", "admin")
	env.do(t, http.MethodGet, "/api/health/live", nil)

	rec := env.do(t, http.MethodGet, "/api/admin/performance", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataMap(t, decodeResponse(t, rec))
	endpoints, _ := data["endpoints"].([]interface{})
	if len(endpoints) == 0 {
		t.Errorf("endpoints = %v, want recorded requests", data["endpoints"])
	}
}
