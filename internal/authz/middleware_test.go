// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package authz

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/theset/internal/auth"
)

func TestMiddleware_AuthorizeRequest(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		subject    *auth.AuthSubject
		method     string
		wantStatus int
		wantBody   string
	}{
		{name: "anonymous", method: http.MethodGet, wantStatus: http.StatusUnauthorized, wantBody: `"error":"Authentication required"`},
		{
			name:       "plain user",
			subject:    &auth.AuthSubject{ID: "u1", Roles: []string{auth.RoleUser}},
			method:     http.MethodPost,
			wantStatus: http.StatusForbidden,
			wantBody:   `"code":"FORBIDDEN"`,
		},
		{
			name:       "admin",
			subject:    &auth.AuthSubject{ID: "u2", Roles: []string{auth.RoleUser, auth.RoleAdmin}},
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/admin/sync-test", nil)
			if tt.subject != nil {
				r = r.WithContext(auth.ContextWithSubject(r.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			mw.AuthorizeRequest(ok).ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
