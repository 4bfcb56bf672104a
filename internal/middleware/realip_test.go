// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedProxies_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies ignores headers", nil, "203.0.113.7:1234", map[string]string{"X-Real-IP": "10.0.0.1"}, "203.0.113.7"},
		{"untrusted peer ignores XFF", []string{"10.1.1.1"}, "203.0.113.7:1234", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "203.0.113.7"},
		{"trusted address uses XFF", []string{"10.1.1.1"}, "10.1.1.1:80", map[string]string{"X-Forwarded-For": "198.51.100.4, 10.1.1.1"}, "198.51.100.4"},
		{"trusted prefix uses XFF", []string{"10.0.0.0/8"}, "10.9.8.7:80", map[string]string{"X-Forwarded-For": "198.51.100.4"}, "198.51.100.4"},
		{"X-Real-IP fallback", []string{"10.1.1.1"}, "10.1.1.1:80", map[string]string{"X-Real-IP": "198.51.100.5"}, "198.51.100.5"},
		{"invalid headers keep peer", []string{"10.1.1.1"}, "10.1.1.1:80", map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "nope"}, "10.1.1.1"},
		{"ipv6 peer", []string{"2001:db8::/32"}, "[2001:db8::1]:443", map[string]string{"X-Real-IP": "198.51.100.6"}, "198.51.100.6"},
		{"invalid entries skipped", []string{"bogus", "10.0.0.0/99"}, "10.1.1.1:80", map[string]string{"X-Real-IP": "198.51.100.5"}, "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := NewTrustedProxies(tt.trusted)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := tp.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrustedProxies_RealIP(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	})

	untrusted := NewTrustedProxies(nil).RealIP(next)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	r.Header.Set("X-Real-IP", "10.0.0.1")
	untrusted.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "203.0.113.7:1234" {
		t.Errorf("RemoteAddr = %q, want the socket address unchanged", seen)
	}

	trusted := NewTrustedProxies([]string{"203.0.113.0/24"}).RealIP(next)
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	trusted.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "198.51.100.9" {
		t.Errorf("RemoteAddr = %q, want the forwarded client", seen)
	}
}
