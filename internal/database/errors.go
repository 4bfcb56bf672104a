// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/logging"
)

// Store errors. They are *apperr.Error values so the API maps them directly.
var (
	ErrSongNotFound     = apperr.NotFound("Song not found in setlist")
	ErrDuplicateVote    = apperr.Conflict("Already voted for this song")
	ErrAnonymousLimit   = apperr.Forbidden("Anonymous vote limit reached")
	ErrVoteNotFound     = apperr.NotFound("Vote not found")
	ErrArtistNotFound   = apperr.NotFound("Artist not found")
	ErrShowNotFound     = apperr.NotFound("Show not found")
	ErrVenueNotFound    = apperr.NotFound("Venue not found")
	ErrSetlistNotFound  = apperr.NotFound("Setlist not found")
	ErrTaskNotFound     = apperr.NotFound("Task not found")
	ErrLeaseLost        = apperr.Conflict("Task is claimed by another worker")
	ErrUnresolvedArtist = errors.New("show references an artist that is not in the bundle or the store")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation detects a unique constraint failure on either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}

// isTransactionConflict detects a DuckDB optimistic concurrency conflict
// or a Postgres serialization failure.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "Conflict on tuple deletion")
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
