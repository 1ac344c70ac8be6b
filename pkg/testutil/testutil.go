// Package testutil holds shared helpers for tests that need a live history
// store.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spideyz0r/corvus/pkg/storage"
)

// OpenStore opens a fresh history database in a per-test temp directory.
// The store is migrated to the current schema and closed on cleanup.
func OpenStore(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Entry is a compact seed record. Zero Timestamp/ExitCode are valid values.
type Entry struct {
	Command   string
	Cwd       string
	ExitCode  int
	Timestamp int64
}

// Seed inserts the entries in order, assigning increasing timestamps to any
// entry without one so recency ordering in tests follows slice order.
func Seed(t *testing.T, db *storage.DB, entries ...Entry) []int64 {
	t.Helper()

	base := time.Now().Unix() - int64(len(entries))
	ids := make([]int64, len(entries))

	for i, e := range entries {
		ts := e.Timestamp
		if ts == 0 {
			ts = base + int64(i)
		}
		id, err := db.InsertOrReplace(e.Command, e.Cwd, e.ExitCode, ts)
		require.NoError(t, err)
		ids[i] = id
	}

	return ids
}

// Commands projects entries onto their command strings, in order.
func Commands(entries []*storage.HistoryEntry) []string {
	commands := make([]string, len(entries))
	for i, e := range entries {
		commands[i] = e.Command
	}
	return commands
}
