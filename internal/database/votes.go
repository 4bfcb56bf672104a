// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/models"
)

// voterClause returns the column that identifies voter and its value.
func voterClause(voter models.Voter) (column string, value string) {
	if voter.UserID != "" {
		return "user_id", voter.UserID
	}
	return "anonymous_key", voter.AnonymousKey
}

// CastVote records one vote and increments the song counter in the same
// transaction. Checks run in order: song exists (404), voter has not voted
// for it (400), anonymous voter is under anonLimit (403). anonLimit <= 0
// disables the cap.
//
// Same-process callers are serialized per voter, then per song, so the
// anonymous cap and the counter cannot race. Across processes the unique
// constraints still guarantee one vote per voter and song.
func (db *DB) CastVote(ctx context.Context, songID string, voter models.Voter, anonLimit int) (*models.VoteResult, error) {
	if !voter.Valid() {
		return nil, apperr.Unauthorized("Voter identity required")
	}

	unlockVoter := db.locks.lock("voter:" + voter.Key())
	defer unlockVoter()
	unlockSong := db.locks.lock("song:" + songID)
	defer unlockSong()

	column, value := voterClause(voter)
	result := &models.VoteResult{SongID: songID}

	err := db.withTx(ctx, "cast_vote", func(tx *sql.Tx) error {
		showID, err := songShowTx(ctx, tx, songID)
		if err != nil {
			return err
		}
		result.ShowID = showID

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM votes WHERE setlist_song_id = $1 AND `+column+` = $2`,
			songID, value).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check existing vote: %w", err)
		}
		if exists > 0 {
			return ErrDuplicateVote
		}

		if voter.IsAnonymous() && anonLimit > 0 {
			var used int
			err = tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM votes WHERE anonymous_key = $1`, voter.AnonymousKey).Scan(&used)
			if err != nil {
				return fmt.Errorf("failed to count anonymous votes: %w", err)
			}
			if used >= anonLimit {
				return ErrAnonymousLimit
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (id, user_id, anonymous_key, setlist_song_id, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), nullString(voter.UserID), anonymousKeyArg(voter), songID, db.now())
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateVote
			}
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE setlist_songs SET vote_count = vote_count + 1 WHERE id = $1 RETURNING vote_count`,
			songID).Scan(&result.VoteCount)
		if err != nil {
			return fmt.Errorf("failed to increment vote count: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return result, nil
}

// RemoveVote deletes the voter's vote on a song and decrements the counter,
// never below zero.
func (db *DB) RemoveVote(ctx context.Context, songID string, voter models.Voter) (*models.VoteResult, error) {
	if !voter.Valid() {
		return nil, apperr.Unauthorized("Voter identity required")
	}

	unlockVoter := db.locks.lock("voter:" + voter.Key())
	defer unlockVoter()
	unlockSong := db.locks.lock("song:" + songID)
	defer unlockSong()

	column, value := voterClause(voter)
	result := &models.VoteResult{SongID: songID}

	err := db.withTx(ctx, "remove_vote", func(tx *sql.Tx) error {
		showID, err := songShowTx(ctx, tx, songID)
		if err != nil {
			return err
		}
		result.ShowID = showID

		res, err := tx.ExecContext(ctx,
			`DELETE FROM votes WHERE setlist_song_id = $1 AND `+column+` = $2`, songID, value)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read deleted rows: %w", err)
		}
		if n == 0 {
			return ErrVoteNotFound
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE setlist_songs
			SET vote_count = CASE WHEN vote_count > 0 THEN vote_count - 1 ELSE 0 END
			WHERE id = $1 RETURNING vote_count`,
			songID).Scan(&result.VoteCount)
		if err != nil {
			return fmt.Errorf("failed to decrement vote count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountAnonymousVotes returns how many votes an anonymous key has cast.
func (db *DB) CountAnonymousVotes(ctx context.Context, anonymousKey string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE anonymous_key = $1`, anonymousKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count anonymous votes: %w", err)
	}
	return n, nil
}

// VotedSongIDs returns the songs of a setlist the voter has voted for.
func (db *DB) VotedSongIDs(ctx context.Context, setlistID string, voter models.Voter) ([]string, error) {
	if !voter.Valid() {
		return []string{}, nil
	}
	column, value := voterClause(voter)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT v.setlist_song_id FROM votes v
		JOIN setlist_songs ss ON ss.id = v.setlist_song_id
		WHERE ss.setlist_id = $1 AND v.`+column+` = $2`,
		setlistID, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer closeWithLog(rows, "vote rows")

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountVotes returns the number of vote rows for a song.
func (db *DB) CountVotes(ctx context.Context, songID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE setlist_song_id = $1`, songID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

func songShowTx(ctx context.Context, tx *sql.Tx, songID string) (string, error) {
	var showID string
	err := tx.QueryRowContext(ctx,
		`SELECT sl.show_id FROM setlist_songs ss
		JOIN setlists sl ON sl.id = ss.setlist_id
		WHERE ss.id = $1`, songID).Scan(&showID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSongNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up song: %w", err)
	}
	return showID, nil
}

func anonymousKeyArg(voter models.Voter) interface{} {
	if voter.UserID != "" {
		return nil
	}
	return nullString(voter.AnonymousKey)
}
