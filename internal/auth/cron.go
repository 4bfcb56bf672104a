// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package auth

import (
	"crypto/subtle"
	"net/http"
)

// CronAuth checks the scheduler's bearer secret.
type CronAuth struct {
	secret []byte
}

// NewCronAuth creates a checker. An empty secret rejects every request.
func NewCronAuth(secret string) *CronAuth {
	return &CronAuth{secret: []byte(secret)}
}

// Authorized reports whether r carries "Authorization: Bearer <secret>".
func (c *CronAuth) Authorized(r *http.Request) bool {
	if len(c.secret) == 0 {
		return false
	}
	token := bearerToken(r)
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), c.secret) == 1
}
