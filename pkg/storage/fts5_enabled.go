//go:build sqlite_fts5

package storage

// The sqlite_fts5 build tag compiles the embedded SQLite with the FTS5
// extension the search index depends on.
const fts5Enabled = true
