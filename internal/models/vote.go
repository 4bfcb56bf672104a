// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package models

import "time"

// Vote records one voter's vote on one setlist song. Exactly one of
// UserID and AnonymousKey is set.
type Vote struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId,omitempty"`
	AnonymousKey  string    `json:"-"`
	SetlistSongID string    `json:"setlistSongId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Voter identifies who is voting.
type Voter struct {
	// UserID is the authenticated session subject.
	UserID string

	// AnonymousKey is the visitor id or IP hash of an unauthenticated voter.
	AnonymousKey string
}

// IsAnonymous reports whether the voter has no session.
func (v Voter) IsAnonymous() bool {
	return v.UserID == ""
}

// Key returns the identity used for locking and uniqueness.
func (v Voter) Key() string {
	if v.UserID != "" {
		return "user:" + v.UserID
	}
	return "anon:" + v.AnonymousKey
}

// Valid reports whether the voter carries an identity.
func (v Voter) Valid() bool {
	return v.UserID != "" || v.AnonymousKey != ""
}

// VoteResult is returned by vote operations.
type VoteResult struct {
	SongID    string `json:"songId"`
	VoteCount int    `json:"voteCount"`
	ShowID    string `json:"-"`
}
