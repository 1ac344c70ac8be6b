package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spideyz0r/corvus/pkg/testutil"
)

func TestSuggest(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db,
		testutil.Entry{Command: "git status", Cwd: "/src"},
		testutil.Entry{Command: "git stash pop", Cwd: "/src"},
		testutil.Entry{Command: "go test ./...", Cwd: "/src"},
	)
	engine := New(db)

	entries, err := engine.Suggest("git sta", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"git stash pop", "git status"}, testutil.Commands(entries))

	// Limit caps to the most recent match.
	entries, err = engine.Suggest("git sta", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"git stash pop"}, testutil.Commands(entries))

	entries, err = engine.Suggest("docker", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearch_Tokens(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db,
		testutil.Entry{Command: "git status", Cwd: "/src"},
		testutil.Entry{Command: "git stash pop", Cwd: "/src"},
		testutil.Entry{Command: "echo stale git", Cwd: "/src"},
	)
	engine := New(db)

	// Token prefixes match anywhere, unlike Suggest.
	entries, err := engine.Search("git sta", Options{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSearch_EmptyQueryReturnsRecent(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db,
		testutil.Entry{Command: "first", Cwd: "/a"},
		testutil.Entry{Command: "second", Cwd: "/a"},
	)
	engine := New(db)

	entries, err := engine.Search("", Options{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, testutil.Commands(entries))
}

func TestSearch_WhitespaceQueryReturnsRecent(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db,
		testutil.Entry{Command: "first", Cwd: "/a"},
		testutil.Entry{Command: "second", Cwd: "/a"},
	)
	engine := New(db)

	// A lone space typed into the picker reaches Search verbatim. No tokens
	// means plain recency, same as an empty query.
	for _, q := range []string{" ", "   ", "\t"} {
		entries, err := engine.Search(q, Options{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, testutil.Commands(entries))
	}
}

func TestSearch_Scoping(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db,
		testutil.Entry{Command: "make build", Cwd: "/src/app"},
		testutil.Entry{Command: "make deploy", Cwd: "/src/app/ops"},
		testutil.Entry{Command: "make clean", Cwd: "/other"},
	)
	engine := New(db)

	entries, err := engine.Search("make", Options{Cwd: "/src/app", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"make build"}, testutil.Commands(entries))

	entries, err = engine.Search("make", Options{CwdUnder: "/src/app", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	failed := 1
	entries, err = engine.Search("make", Options{ExitCode: &failed, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecall_WalksByPrefix(t *testing.T) {
	db := testutil.OpenStore(t)
	ids := testutil.Seed(t, db,
		testutil.Entry{Command: "git add .", Cwd: "/src"},
		testutil.Entry{Command: "git commit", Cwd: "/src"},
		testutil.Entry{Command: "ls", Cwd: "/src"},
		testutil.Entry{Command: "git push", Cwd: "/src"},
	)
	engine := New(db)

	// Unset cursor: newest matching entry.
	entry, err := engine.Recall("git", Older, 0)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "git push", entry.Command)

	// Walking older skips the non-matching entry in between.
	entry, err = engine.Recall("git", Older, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "git commit", entry.Command)

	entry, err = engine.Recall("git", Older, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "git add .", entry.Command)

	// Off the old end.
	entry, err = engine.Recall("git", Older, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	// And back toward newer.
	entry, err = engine.Recall("git", Newer, ids[0])
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "git commit", entry.Command)
}

func TestRecall_WalksByInsertionOrder(t *testing.T) {
	db := testutil.OpenStore(t)
	// "make b" and "make c" are long-running commands finalized out of start
	// order, so their timestamps lag their ids.
	testutil.Seed(t, db,
		testutil.Entry{Command: "make a", Cwd: "/src", Timestamp: 100},
		testutil.Entry{Command: "make b", Cwd: "/src", Timestamp: 400},
		testutil.Entry{Command: "make c", Cwd: "/src", Timestamp: 200},
		testutil.Entry{Command: "make d", Cwd: "/src", Timestamp: 300},
	)
	engine := New(db)

	// The older walk visits every entry in insertion order, starting from
	// the last recorded entry; no entry is skipped because its start time
	// is out of id order.
	cursor := int64(0)
	for _, want := range []string{"make d", "make c", "make b", "make a"} {
		entry, err := engine.Recall("make", Older, cursor)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, want, entry.Command)
		cursor = entry.ID
	}

	entry, err := engine.Recall("make", Older, cursor)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRecall_NewerFromUnsetCursor(t *testing.T) {
	db := testutil.OpenStore(t)
	testutil.Seed(t, db, testutil.Entry{Command: "git push", Cwd: "/src"})
	engine := New(db)

	entry, err := engine.Recall("git", Newer, 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRecall_NoMatches(t *testing.T) {
	db := testutil.OpenStore(t)
	engine := New(db)

	entry, err := engine.Recall("docker", Older, 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}
