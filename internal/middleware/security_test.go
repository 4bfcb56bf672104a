// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shows", nil))

	want := map[string]string{
		"Content-Security-Policy": apiContentSecurityPolicy,
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Permissions-Policy":      "geolocation=(), microphone=(), camera=()",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be sent over plain HTTP")
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"forwarded https", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }},
		{"direct tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Header().Get("Strict-Transport-Security") == "" {
				t.Error("HSTS header missing")
			}
		})
	}
}

func TestDocsSecurityHeaders_OverridesPolicy(t *testing.T) {
	handler := SecurityHeaders(DocsSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/swagger/index.html", nil))

	if got := rec.Header().Get("Content-Security-Policy"); got != docsContentSecurityPolicy {
		t.Errorf("Content-Security-Policy = %q, want the docs policy", got)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("docs pages should keep the remaining security headers")
	}
}
