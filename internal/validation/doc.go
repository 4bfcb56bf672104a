// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// Package validation wraps go-playground/validator with a singleton instance,
// json-tag field names, a relpath rule for proxied upstream paths and
// messages suitable for API responses.
//
//	type voteRequest struct {
//	    SongID string `json:"songId" validate:"required,uuid"`
//	}
package validation
