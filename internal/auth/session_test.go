// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/theset/internal/config"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters-long"

func signSession(t *testing.T, secret string, method jwt.SigningMethod, claims *SessionClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func validClaims(sub string) *SessionClaims {
	return &SessionClaims{
		Email: "fan@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://project.supabase.co/auth/v1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestSessionVerifier_Verify(t *testing.T) {
	v := NewSessionVerifier(&config.SupabaseConfig{JWTSecret: testJWTSecret})

	admin := validClaims("user-1")
	admin.AppMetadata = AppMetadata{Role: "Admin", Roles: []string{"admin", " moderator "}}

	expired := validClaims("user-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name      string
		token     string
		wantErr   error
		wantRoles []string
	}{
		{
			name:      "valid user token",
			token:     signSession(t, testJWTSecret, jwt.SigningMethodHS256, validClaims("user-1")),
			wantRoles: []string{RoleUser},
		},
		{
			name:      "app metadata roles merged",
			token:     signSession(t, testJWTSecret, jwt.SigningMethodHS256, admin),
			wantRoles: []string{RoleUser, RoleAdmin, "moderator"},
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrNoCredentials,
		},
		{
			name:    "wrong secret",
			token:   signSession(t, "another-secret-that-is-also-long-enough!!", jwt.SigningMethodHS256, validClaims("user-1")),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong algorithm",
			token:   signSession(t, testJWTSecret, jwt.SigningMethodHS512, validClaims("user-1")),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "expired",
			token:   signSession(t, testJWTSecret, jwt.SigningMethodHS256, expired),
			wantErr: ErrExpiredCredentials,
		},
		{
			name:    "missing subject",
			token:   signSession(t, testJWTSecret, jwt.SigningMethodHS256, validClaims("")),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if subject.ID != "user-1" || subject.Email != "fan@example.com" {
				t.Errorf("subject = %+v", subject)
			}
			if len(subject.Roles) != len(tt.wantRoles) {
				t.Fatalf("Roles = %v, want %v", subject.Roles, tt.wantRoles)
			}
			for i, role := range tt.wantRoles {
				if subject.Roles[i] != role {
					t.Errorf("Roles[%d] = %q, want %q", i, subject.Roles[i], role)
				}
			}
		})
	}
}

func TestSessionVerifier_Disabled(t *testing.T) {
	v := NewSessionVerifier(&config.SupabaseConfig{})
	if v.Enabled() {
		t.Fatal("Enabled() = true without a secret")
	}
	token := signSession(t, testJWTSecret, jwt.SigningMethodHS256, validClaims("user-1"))
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestExtractSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "cookie", cookie: "from-cookie", want: "from-cookie"},
		{name: "header wins", header: "Bearer abc", cookie: "from-cookie", want: "abc"},
		{name: "basic ignored", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "none", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if got := extractSessionToken(r); got != tt.want {
				t.Errorf("extractSessionToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthSubject_HasRole(t *testing.T) {
	s := &AuthSubject{Roles: []string{RoleUser, RoleAdmin}}
	if !s.HasRole(RoleAdmin) || s.HasRole("") || s.HasRole("editor") {
		t.Error("HasRole() mismatch")
	}
	if !s.HasAnyRole("editor", RoleUser) || s.HasAnyRole() {
		t.Error("HasAnyRole() mismatch")
	}
}
