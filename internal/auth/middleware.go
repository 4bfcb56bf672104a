// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package auth

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/models"
)

// Middleware attaches caller identity to requests.
type Middleware struct {
	sessions *SessionVerifier
	visitors *VisitorIdentity
	cron     *CronAuth
}

// NewMiddleware creates the authentication middleware. With a nil visitors,
// Voter returns an empty voter for anonymous requests.
func NewMiddleware(sessions *SessionVerifier, visitors *VisitorIdentity, cron *CronAuth) *Middleware {
	return &Middleware{sessions: sessions, visitors: visitors, cron: cron}
}

// OptionalSession verifies a presented session token and stores the subject
// in the request context. Requests without a token pass through anonymously;
// a token that fails verification is rejected with 401.
func (m *Middleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractSessionToken(r)
		if token == "" || m.sessions == nil || !m.sessions.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := m.sessions.Verify(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Session token rejected")
			msg := "Invalid session"
			if errors.Is(err, ErrExpiredCredentials) {
				msg = "Session expired"
			}
			writeUnauthorized(w, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

// RequireSession rejects requests without a verified session with 401.
// It must run after OptionalSession.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) == nil {
			writeUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCron rejects requests without the cron bearer secret.
func (m *Middleware) RequireCron(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cron == nil || !m.cron.Authorized(r) {
			logging.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Unauthorized cron request")
			writeUnauthorized(w, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Voter returns the voting identity for r: the session user when present,
// otherwise the anonymous visitor key (which may set a cookie on w).
func (m *Middleware) Voter(w http.ResponseWriter, r *http.Request) models.Voter {
	if s := SubjectFromContext(r.Context()); s != nil {
		return models.Voter{UserID: s.ID}
	}
	if m.visitors == nil {
		return models.Voter{}
	}
	return models.Voter{AnonymousKey: m.visitors.Resolve(w, r)}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(errorBody{Success: false, Error: msg}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error")
	}
}
