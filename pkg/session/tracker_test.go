package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spideyz0r/corvus/pkg/query"
	"github.com/spideyz0r/corvus/pkg/storage"
	"github.com/spideyz0r/corvus/pkg/testutil"
)

func TestStartEnd_RoundTrip(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)

	id, err := tracker.Start("make test", "/src")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The pending half is durable and carries the start context.
	pending, err := db.GetPending(id)
	require.NoError(t, err)
	assert.Equal(t, "make test", pending.Command)
	assert.Equal(t, "/src", pending.Cwd)

	entryID, found, err := tracker.End(id, 1)
	require.NoError(t, err)
	require.True(t, found)

	entry, err := db.Get(entryID)
	require.NoError(t, err)
	assert.Equal(t, "make test", entry.Command)
	assert.Equal(t, "/src", entry.Cwd)
	assert.Equal(t, 1, entry.ExitCode)
	assert.Equal(t, pending.StartedAt, entry.Timestamp)
}

func TestStart_EmptyCommand(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)

	for _, cmd := range []string{"", "   ", "\n"} {
		id, err := tracker.Start(cmd, "/src")
		require.NoError(t, err)
		assert.Empty(t, id)
	}

	count, err := db.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStart_IgnoredCommands(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, []string{"^ls$", "^cd "})

	id, err := tracker.Start("ls", "/src")
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = tracker.Start("cd /tmp", "/src")
	require.NoError(t, err)
	assert.Empty(t, id)

	// Non-anchored text still records.
	id, err = tracker.Start("ls -la", "/src")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestStart_InvalidIgnorePatternDropped(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, []string{"[broken", "^ls$"})

	id, err := tracker.Start("ls", "/src")
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = tracker.Start("make", "/src")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestEnd_IsIdempotent(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)

	id, err := tracker.Start("make", "/src")
	require.NoError(t, err)

	_, found, err := tracker.End(id, 0)
	require.NoError(t, err)
	require.True(t, found)

	// Stale CORVUS_SESSION values produce duplicate end calls.
	_, found, err = tracker.End(id, 0)
	require.NoError(t, err)
	assert.False(t, found)

	count, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnd_EmptySessionID(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)

	_, found, err := tracker.End("", 0)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = tracker.End("  ", 0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnd_ReapsAbandonedSessions(t *testing.T) {
	db := testutil.OpenStore(t)

	past := time.Now().Add(-30 * 24 * time.Hour)
	tracker := New(db, nil)
	tracker.now = func() time.Time { return past }

	// A session that never ends: the shell died mid-command.
	_, err := tracker.Start("sleep infinity", "/src")
	require.NoError(t, err)

	tracker.now = time.Now

	id, err := tracker.Start("make", "/src")
	require.NoError(t, err)
	_, found, err := tracker.End(id, 0)
	require.NoError(t, err)
	require.True(t, found)

	// Ending a session opportunistically sweeps stale pending rows.
	count, err := db.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCaptureThenSearch(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)
	engine := query.New(db)

	id, err := tracker.Start("ls -la", "/src")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, found, err := tracker.End(id, 0)
	require.NoError(t, err)
	require.True(t, found)

	_, found, err = tracker.End(id, 0)
	require.NoError(t, err)
	require.False(t, found)

	entries, err := engine.Suggest("ls", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ls -la", entries[0].Command)
	assert.Equal(t, "/src", entries[0].Cwd)
	assert.Equal(t, 0, entries[0].ExitCode)
}

func TestUnfinishedSessionNeverReachesHistory(t *testing.T) {
	db := testutil.OpenStore(t)
	tracker := New(db, nil)

	_, err := tracker.Start("make", "/src")
	require.NoError(t, err)

	entries, err := db.Match(storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
