package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Store defines the interface for history storage operations
type Store interface {
	InsertOrReplace(command, cwd string, exitCode int, timestamp int64) (int64, error)
	Match(f Filter) ([]*HistoryEntry, error)
	Get(id int64) (*HistoryEntry, error)
	Count() (int64, error)
	Delete(id int64) error
	Close() error
}

// Filter is the read-path filter consumed by Match. Fields combine with AND.
type Filter struct {
	Prefix   string // command starts with this literal string
	Tokens   string // free-text query, tokenized into an FTS5 match
	Cwd      string // cwd equals this directory
	CwdUnder string // cwd equals or is under this directory
	ExitCode *int   // exit code equals
	BeforeID int64  // only rows older than this id (insertion order)
	AfterID  int64  // only rows newer than this id
	Limit    int    // max results (0 = unlimited)
}

// InsertOrReplace persists a finalized entry. A collision on the
// (command, cwd, exit_code) triple replaces the old row: the row is deleted,
// a fresh row (new id, new timestamp) takes its place, and the FTS triggers
// keep the index in lockstep. Returns the new row id.
func (db *DB) InsertOrReplace(command, cwd string, exitCode int, timestamp int64) (int64, error) {
	var id int64
	err := db.withRetry(func() error {
		result, err := db.conn.Exec(
			"INSERT INTO history (timestamp, command, cwd, exit_code) VALUES (?, ?, ?, ?)",
			timestamp, command, cwd, exitCode,
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return id, nil
}

// Match retrieves history entries for the given filter.
//
// With Tokens carrying at least one word the query runs against the
// full-text index and results are ordered by relevance, ties broken by
// recency then id (newest wins). A blank Tokens value falls back to plain
// recency, same as no query at all. Ids are assigned in insertion order, so
// the BeforeID/AfterID cursors step strictly by id in both directions.
func (db *DB) Match(f Filter) ([]*HistoryEntry, error) {
	var query string
	args := []interface{}{}

	// Whitespace-only input yields no terms; MATCH '' is an FTS5 syntax
	// error, so an empty match string must take the recency path.
	match := buildFTSMatch(f.Tokens)

	if match != "" {
		query = `SELECT h.id, h.timestamp, h.command, h.cwd, h.exit_code
		FROM history_fts fts
		JOIN history h ON h.id = fts.rowid
		WHERE history_fts MATCH ?`
		args = append(args, match)
	} else {
		query = `SELECT h.id, h.timestamp, h.command, h.cwd, h.exit_code
		FROM history h WHERE 1=1`
	}

	if f.Prefix != "" {
		query += ` AND h.command LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(f.Prefix)+"%")
	}

	if f.Cwd != "" {
		query += " AND h.cwd = ?"
		args = append(args, f.Cwd)
	}

	if f.CwdUnder != "" {
		query += ` AND (h.cwd = ? OR h.cwd LIKE ? ESCAPE '\')`
		args = append(args, f.CwdUnder, escapeLike(f.CwdUnder)+"/%")
	}

	if f.ExitCode != nil {
		query += " AND h.exit_code = ?"
		args = append(args, *f.ExitCode)
	}

	if f.BeforeID > 0 {
		query += " AND h.id < ?"
		args = append(args, f.BeforeID)
	}

	if f.AfterID > 0 {
		query += " AND h.id > ?"
		args = append(args, f.AfterID)
	}

	switch {
	case f.AfterID > 0:
		// Stepping toward newer entries: nearest first.
		query += " ORDER BY h.id ASC"
	case f.BeforeID > 0:
		// Stepping toward older entries. The cursor filters by id, so the
		// walk must order by id too; a timestamp order would skip entries
		// whose start time is out of id order (long-running commands
		// finalized late).
		query += " ORDER BY h.id DESC"
	case match != "":
		query += " ORDER BY fts.rank, h.timestamp DESC, h.id DESC"
	default:
		query += " ORDER BY h.timestamp DESC, h.id DESC"
	}

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*HistoryEntry
	for rows.Next() {
		entry := &HistoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Command, &entry.Cwd, &entry.ExitCode); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Get retrieves a single history entry by ID
func (db *DB) Get(id int64) (*HistoryEntry, error) {
	entry := &HistoryEntry{}
	err := db.conn.QueryRow(
		"SELECT id, timestamp, command, cwd, exit_code FROM history WHERE id = ?", id,
	).Scan(&entry.ID, &entry.Timestamp, &entry.Command, &entry.Cwd, &entry.ExitCode)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// Count returns the total number of history entries
func (db *DB) Count() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Delete removes a history entry by ID. The FTS delete trigger removes its
// index projection in the same statement.
func (db *DB) Delete(id int64) error {
	var affected int64
	err := db.withRetry(func() error {
		result, err := db.conn.Exec("DELETE FROM history WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// buildFTSMatch converts a free-text query into an FTS5 match string: each
// whitespace token becomes a quoted prefix term, so `git sta` matches both
// "git status" and "git stash".
func buildFTSMatch(query string) string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		escaped := strings.ReplaceAll(word, `"`, `""`)
		terms = append(terms, `"`+escaped+`"*`)
	}
	return strings.Join(terms, " ")
}

// escapeLike escapes LIKE metacharacters so user text matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
