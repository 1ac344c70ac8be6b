package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// PutPending persists a new pending session. The row must survive the
// process that created it: the start and end halves of a capture may come
// from different shell invocations.
func (db *DB) PutPending(p *PendingSession) error {
	err := db.withRetry(func() error {
		_, err := db.conn.Exec(
			"INSERT INTO pending_sessions (session_id, command, cwd, started_at) VALUES (?, ?, ?, ?)",
			p.SessionID, p.Command, p.Cwd, p.StartedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store pending session: %w", err)
	}
	return nil
}

// GetPending retrieves a pending session by id, or ErrNotFound.
func (db *DB) GetPending(sessionID string) (*PendingSession, error) {
	p := &PendingSession{}
	err := db.conn.QueryRow(
		"SELECT session_id, command, cwd, started_at FROM pending_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&p.SessionID, &p.Command, &p.Cwd, &p.StartedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending session: %w", err)
	}

	return p, nil
}

// FinalizePending consumes the pending session and writes the finalized
// history entry in one transaction. An unknown or already-consumed id is a
// no-op reported as found=false: finalization is idempotent-safe against
// duplicate or stale end calls.
func (db *DB) FinalizePending(sessionID string, exitCode int) (id int64, found bool, err error) {
	err = db.withRetry(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		p := &PendingSession{}
		err = tx.QueryRow(
			"SELECT session_id, command, cwd, started_at FROM pending_sessions WHERE session_id = ?",
			sessionID,
		).Scan(&p.SessionID, &p.Command, &p.Cwd, &p.StartedAt)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		result, err := tx.Exec(
			"INSERT INTO history (timestamp, command, cwd, exit_code) VALUES (?, ?, ?, ?)",
			p.StartedAt, p.Command, p.Cwd, exitCode,
		)
		if err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM pending_sessions WHERE session_id = ?", sessionID); err != nil {
			return err
		}

		found = true
		return tx.Commit()
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to finalize session: %w", err)
	}
	return id, found, nil
}

// DeletePending discards a pending session without finalizing it.
// Deleting an absent row is not an error.
func (db *DB) DeletePending(sessionID string) error {
	err := db.withRetry(func() error {
		_, err := db.conn.Exec("DELETE FROM pending_sessions WHERE session_id = ?", sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete pending session: %w", err)
	}
	return nil
}

// ReapPending removes pending sessions started before the cutoff. Abandoned
// sessions are harmless either way; this is opportunistic housekeeping, not
// required for correctness.
func (db *DB) ReapPending(olderThan int64) (int64, error) {
	var affected int64
	err := db.withRetry(func() error {
		result, err := db.conn.Exec("DELETE FROM pending_sessions WHERE started_at < ?", olderThan)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reap pending sessions: %w", err)
	}
	return affected, nil
}

// CountPending returns the number of in-flight sessions.
func (db *DB) CountPending() (int64, error) {
	var count int64
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM pending_sessions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending sessions: %w", err)
	}
	return count, nil
}
