// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/theset/internal/config"
)

// SessionCookieName is the cookie the web client stores the access token in.
const SessionCookieName = "sb-access-token"

// AppMetadata is the server-controlled part of a Supabase token.
type AppMetadata struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// SessionClaims are the claims of a Supabase access token.
type SessionClaims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"` // "authenticated" for signed-in users
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// SessionVerifier validates Supabase access tokens signed with the project's
// JWT secret.
type SessionVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewSessionVerifier creates a verifier. With an empty JWT secret every token
// is rejected and Enabled reports false.
func NewSessionVerifier(cfg *config.SupabaseConfig) *SessionVerifier {
	return &SessionVerifier{
		secret: []byte(cfg.JWTSecret),
		leeway: 30 * time.Second,
	}
}

// Enabled reports whether session tokens can be verified.
func (v *SessionVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify validates tokenString and returns the subject it names.
//
// The signing method must be HS256; tokens without a sub claim are rejected.
func (v *SessionVerifier) Verify(tokenString string) (*AuthSubject, error) {
	if tokenString == "" {
		return nil, ErrNoCredentials
	}
	if !v.Enabled() {
		return nil, fmt.Errorf("%w: session verification is not configured", ErrInvalidCredentials)
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(v.leeway))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	return subjectFromClaims(claims), nil
}

func subjectFromClaims(c *SessionClaims) *AuthSubject {
	s := &AuthSubject{
		ID:     c.Subject,
		Email:  c.Email,
		Roles:  []string{RoleUser},
		Issuer: c.Issuer,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}

	add := func(role string) {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" && !s.HasRole(role) {
			s.Roles = append(s.Roles, role)
		}
	}
	add(c.AppMetadata.Role)
	for _, r := range c.AppMetadata.Roles {
		add(r)
	}
	return s
}

// extractSessionToken reads the bearer token or the session cookie.
func extractSessionToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
