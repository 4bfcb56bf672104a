// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/auth"
	"github.com/tomtom215/theset/internal/logging"
)

// Middleware enforces the policy on routes behind auth.Middleware.OptionalSession.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest authorizes the request path with the action derived from
// the HTTP method. Anonymous requests get 401, denied ones 403.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		if subject == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
			return
		}

		action := MethodToAction(r.Method)
		allowed, err := m.enforcer.EnforceWithRoles(subject.ID, subject.Roles, r.URL.Path, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
			return
		}
		if !allowed {
			logging.Ctx(r.Context()).Warn().
				Str("subject", subject.ID).
				Str("path", r.URL.Path).
				Str("action", action).
				Msg("Access denied")
			writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg, Code: code}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode authz error")
	}
}
