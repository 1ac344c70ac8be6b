//go:build !sqlite_fts5

package storage

const fts5Enabled = false
