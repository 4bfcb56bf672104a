// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestCron_RequiresSecret(t *testing.T) {
	env := newTestEnv(t)

	for _, auth := range []string{"", "Bearer wrong", testCronSecret} {
		var opts []func(*http.Request)
		if auth != "" {
			opts = append(opts, withHeader("Authorization", auth))
		}
		rec := env.do(t, http.MethodPost, "/api/cron/process-queue", nil, opts...)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: status = %d, want 401", auth, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"success":false,"error":"Unauthorized"}` {
			t.Errorf("auth %q: body = %s", auth, got)
		}
	}
	if ops := env.queue.operations(); len(ops) != 0 {
		t.Errorf("queue operations = %v, want none", ops)
	}
}

func TestCron_Jobs(t *testing.T) {
	tests := []struct {
		path   string
		method string
		wantOp string
		check  func(t *testing.T, data map[string]interface{})
	}{
		{"/api/cron/process-queue", http.MethodPost, "process", func(t *testing.T, d map[string]interface{}) {
			if d["completed"] != float64(2) {
				t.Errorf("data = %v", d)
			}
		}},
		{"/api/cron/refresh-stale", http.MethodGet, "refresh-stale", func(t *testing.T, d map[string]interface{}) {
			if d["enqueued"] != float64(3) {
				t.Errorf("data = %v", d)
			}
		}},
		{"/api/cron/sync-trending", http.MethodPost, "trending", func(t *testing.T, d map[string]interface{}) {
			if d["merged"] != float64(1) {
				t.Errorf("data = %v", d)
			}
		}},
		{"/api/cron/cleanup", http.MethodGet, "cleanup", func(t *testing.T, d map[string]interface{}) {
			if d["deleted"] != float64(7) {
				t.Errorf("data = %v", d)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, tt.method, tt.path, nil, withHeader("Authorization", "Bearer "+testCronSecret))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			tt.check(t, dataMap(t, decodeResponse(t, rec)))
			if ops := env.queue.operations(); len(ops) != 1 || ops[0] != tt.wantOp {
				t.Errorf("operations = %v, want [%s]", ops, tt.wantOp)
			}
		})
	}
}

func TestCron_JobError(t *testing.T) {
	env := newTestEnv(t)
	env.queue.err = errBoom

	rec := env.do(t, http.MethodPost, "/api/cron/cleanup", nil, withHeader("Authorization", "Bearer "+testCronSecret))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
