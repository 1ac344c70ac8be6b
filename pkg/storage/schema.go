package storage

// HistoryEntry is a finalized record of one completed command execution.
type HistoryEntry struct {
	ID        int64  `db:"id"`
	Timestamp int64  `db:"timestamp"`
	Command   string `db:"command"`
	Cwd       string `db:"cwd"` // empty string when unavailable
	ExitCode  int    `db:"exit_code"`
}

// PendingSession is the durable record of a command that has started but not
// yet completed. It lives in its own table so an unfinished command never
// surfaces as history.
type PendingSession struct {
	SessionID string `db:"session_id"`
	Command   string `db:"command"`
	Cwd       string `db:"cwd"`
	StartedAt int64  `db:"started_at"`
}

// Schema versions for migration tracking
const (
	SchemaVersion1 = 1 // baseline history table
	SchemaVersion2 = 2 // dedup constraint on (command, cwd, exit_code)
	SchemaVersion3 = 3 // history_fts full-text index + sync triggers
	SchemaVersion4 = 4 // pending_sessions table
	CurrentSchema  = SchemaVersion4
)

// v1: the original flat history table, no dedup constraint.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    command TEXT NOT NULL,
    cwd TEXT NOT NULL DEFAULT '',
    exit_code INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_history_command ON history(command);
`

// v2: reshape history to carry the dedup constraint. Existing rows are
// copied forward keeping the most recent occurrence of each triple.
const schemaV2 = `
DROP INDEX IF EXISTS idx_history_timestamp;
DROP INDEX IF EXISTS idx_history_command;

ALTER TABLE history RENAME TO history_old;

CREATE TABLE history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    command TEXT NOT NULL,
    cwd TEXT NOT NULL DEFAULT '',
    exit_code INTEGER NOT NULL,
    UNIQUE(command, cwd, exit_code) ON CONFLICT REPLACE
);

INSERT INTO history (timestamp, command, cwd, exit_code)
SELECT MAX(timestamp), command, cwd, exit_code
FROM history_old
GROUP BY command, cwd, exit_code;

DROP TABLE history_old;

CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_history_command ON history(command);
`

// v3: full-text index over (command, cwd), kept in lockstep by triggers and
// bulk-loaded from the canonical table on creation.
const schemaV3 = `
CREATE VIRTUAL TABLE history_fts USING fts5(
    command,
    cwd,
    content='history',
    content_rowid='id'
);

CREATE TRIGGER history_fts_insert AFTER INSERT ON history BEGIN
    INSERT INTO history_fts(rowid, command, cwd)
    VALUES (new.id, new.command, new.cwd);
END;

CREATE TRIGGER history_fts_delete AFTER DELETE ON history BEGIN
    INSERT INTO history_fts(history_fts, rowid, command, cwd)
    VALUES ('delete', old.id, old.command, old.cwd);
END;

CREATE TRIGGER history_fts_update AFTER UPDATE ON history BEGIN
    INSERT INTO history_fts(history_fts, rowid, command, cwd)
    VALUES ('delete', old.id, old.command, old.cwd);
    INSERT INTO history_fts(rowid, command, cwd)
    VALUES (new.id, new.command, new.cwd);
END;

INSERT INTO history_fts(history_fts) VALUES ('rebuild');
`

// v4: durable pending sessions, keyed by the opaque id handed to the shell.
const schemaV4 = `
CREATE TABLE IF NOT EXISTS pending_sessions (
    session_id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    cwd TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_started ON pending_sessions(started_at);
`

// GetSchema returns the SQL migration for the given version
func GetSchema(version int) string {
	switch version {
	case SchemaVersion1:
		return schemaV1
	case SchemaVersion2:
		return schemaV2
	case SchemaVersion3:
		return schemaV3
	case SchemaVersion4:
		return schemaV4
	default:
		return ""
	}
}
