// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// Package authz enforces role-based access to API routes using Casbin.
//
//	Request -> auth.OptionalSession -> authz.AuthorizeRequest -> Handler
//
// The model matches request paths with keyMatch2 and lets a policy action of
// "*" cover every method:
//
//	m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
//
// The embedded policy grants the admin role everything under /api/admin/ and
// makes admin inherit user. SECURITY_ADMIN_POLICY_PATH replaces it with a CSV
// file in the same format.
package authz
