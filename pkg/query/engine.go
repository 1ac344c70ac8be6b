// Package query serves the three read paths over the history store:
// inline autosuggestion, ranked free-text search, and directional recall.
package query

import (
	"fmt"
	"math"

	"github.com/spideyz0r/corvus/pkg/storage"
)

// Direction selects which neighbor Recall steps to.
type Direction int

const (
	// Older steps toward less recent entries (the up key).
	Older Direction = iota
	// Newer steps toward more recent entries (the down key).
	Newer
)

// Options are the structured filters shared by Search.
type Options struct {
	Cwd      string // restrict to entries executed exactly in this directory
	CwdUnder string // restrict to this directory and everything beneath it
	ExitCode *int   // restrict by exit status
	Limit    int
}

// Engine dispatches the query modes against one store. All modes are
// read-only; an empty result is a valid outcome, never an error.
type Engine struct {
	db *storage.DB
}

func New(db *storage.DB) *Engine {
	return &Engine{db: db}
}

// Suggest returns the most recent entries whose command starts with prefix,
// newest first. This runs on every keystroke, so it stays a single indexed
// lookup with no ranking.
func (e *Engine) Suggest(prefix string, limit int) ([]*storage.HistoryEntry, error) {
	entries, err := e.db.Match(storage.Filter{
		Prefix: prefix,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest query failed: %w", err)
	}
	return entries, nil
}

// Search runs the ranked free-text mode. Tokens match against command and
// cwd through the full-text index, ordered by relevance with recency as the
// tie-break. An empty query returns the most recent entries overall.
func (e *Engine) Search(queryText string, opts Options) ([]*storage.HistoryEntry, error) {
	entries, err := e.db.Match(storage.Filter{
		Tokens:   queryText,
		Cwd:      opts.Cwd,
		CwdUnder: opts.CwdUnder,
		ExitCode: opts.ExitCode,
		Limit:    opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	return entries, nil
}

// Recall emulates shell up-key history walking scoped to a prefix: it
// returns the single entry adjacent to the cursor in the given direction
// among entries whose command starts with prefix. A zero cursor means
// "newest matching entry". Returns nil when the walk runs off either end.
func (e *Engine) Recall(prefix string, dir Direction, cursorID int64) (*storage.HistoryEntry, error) {
	f := storage.Filter{
		Prefix: prefix,
		Limit:  1,
	}
	switch dir {
	case Older:
		if cursorID == 0 {
			// The walk is insertion-ordered, so it starts past the
			// newest id rather than at the newest timestamp.
			cursorID = math.MaxInt64
		}
		f.BeforeID = cursorID
	case Newer:
		if cursorID == 0 {
			// Nothing is newer than the unset cursor.
			return nil, nil
		}
		f.AfterID = cursorID
	}

	entries, err := e.db.Match(f)
	if err != nil {
		return nil, fmt.Errorf("recall query failed: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}
