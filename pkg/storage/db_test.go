package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "history.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db)
	assert.Equal(t, dbPath, db.Path())

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "subdir", "nested", "history.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestBuildIncludesFullTextSearch(t *testing.T) {
	// The suite only runs under the sqlite_fts5 tag; without it Open refuses
	// to start instead of failing mid-migration with "no such module: fts5".
	require.True(t, fts5Enabled)

	db := openTestDB(t)
	var n int
	require.NoError(t, db.conn.QueryRow("SELECT COUNT(*) FROM history_fts").Scan(&n))
}

func TestInitialize_EnablesWAL(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)
}

func TestInitialize_CreatesTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"schema_version", "history", "history_fts", "pending_sessions"} {
		var count int
		err := db.conn.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE name=?
		`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestInitialize_SchemaAtCurrent(t *testing.T) {
	db := openTestDB(t)

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchema, version)
}

func TestOpen_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	_, err = db.InsertOrReplace("git status", "/tmp", 0, 1000)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an up-to-date database applies nothing and loses nothing.
	db, err = Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchema, version)

	count, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_FromVersion1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	// Build a version-1 database by hand: baseline schema, duplicate rows
	// allowed, no FTS, no pending sessions.
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(GetSchema(SchemaVersion1))
	require.NoError(t, err)
	_, err = raw.Exec("INSERT INTO schema_version (version, applied_at) VALUES (1, 0)")
	require.NoError(t, err)
	for _, ts := range []int64{100, 200, 300} {
		_, err = raw.Exec(
			"INSERT INTO history (timestamp, command, cwd, exit_code) VALUES (?, 'make build', '/src', 0)", ts,
		)
		require.NoError(t, err)
	}
	_, err = raw.Exec(
		"INSERT INTO history (timestamp, command, cwd, exit_code) VALUES (400, 'make test', '/src', 2)",
	)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchema, version)

	// The reshape collapses the duplicate triple, keeping the newest.
	entries, err := db.Match(Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "make test", entries[0].Command)
	assert.Equal(t, "make build", entries[1].Command)
	assert.Equal(t, int64(300), entries[1].Timestamp)

	// The rebuilt FTS index covers the migrated rows.
	results, err := db.Match(Filter{Tokens: "make"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMigrate_RecordsEachVersion(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.conn.Query("SELECT version FROM schema_version ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int{1, 2, 3, 4}, versions)
}
