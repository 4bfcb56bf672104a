// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import "time"

// FreshnessWindow is how long a synced entity is served without a refresh.
const FreshnessWindow = 24 * time.Hour

// Staleness decides whether cached rows need a refresh.
type Staleness struct {
	now func() time.Time
}

// NewStaleness returns an evaluator using now as its clock. A nil now uses time.Now.
func NewStaleness(now func() time.Time) *Staleness {
	if now == nil {
		now = time.Now
	}
	return &Staleness{now: now}
}

// IsStale reports whether a row last updated at updatedAt must be refreshed.
// A zero timestamp is always stale.
func (s *Staleness) IsStale(updatedAt time.Time) bool {
	if updatedAt.IsZero() {
		return true
	}
	return s.now().Sub(updatedAt) > FreshnessWindow
}

// Cutoff returns the oldest updated_at that still counts as fresh.
func (s *Staleness) Cutoff() time.Time {
	return s.now().Add(-FreshnessWindow)
}

// Now returns the evaluator's clock reading.
func (s *Staleness) Now() time.Time {
	return s.now()
}
