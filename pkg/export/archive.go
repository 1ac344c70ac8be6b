package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spideyz0r/corvus/pkg/crypto"
	"github.com/spideyz0r/corvus/pkg/storage"
)

// ArchiveInfo describes a written archive.
type ArchiveInfo struct {
	Path    string
	Entries int
	Size    int64
}

// WriteArchive exports the matching entries as an encrypted archive. The
// payload is the JSON export format sealed with the passphrase, so an
// archive survives schema changes in the live database file.
func WriteArchive(db *storage.DB, path, passphrase string, filter storage.Filter) (*ArchiveInfo, error) {
	entries, err := db.Match(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	jsonEntries := make([]jsonEntry, len(entries))
	for i, entry := range entries {
		jsonEntries[i] = jsonEntry{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Command:   entry.Command,
			Cwd:       entry.Cwd,
			ExitCode:  entry.ExitCode,
		}
	}

	payload, err := json.Marshal(jsonEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive payload: %w", err)
	}

	sealed, err := crypto.Seal(payload, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to seal archive: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	return &ArchiveInfo{
		Path:    path,
		Entries: len(entries),
		Size:    int64(len(sealed)),
	}, nil
}

// DefaultArchiveName returns a timestamped archive filename.
func DefaultArchiveName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("corvus-%s-%s.archive", hostname, time.Now().Format("20060102-150405"))
}

// ReadArchive imports entries from an encrypted archive. Entries keep their
// archived timestamps; the dedup constraint collapses anything already
// present, so importing is idempotent. Returns the number of entries read.
func ReadArchive(db *storage.DB, path, passphrase string) (int, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}

	payload, err := crypto.Open(sealed, passphrase)
	if err != nil {
		return 0, err
	}

	var jsonEntries []jsonEntry
	if err := json.Unmarshal(payload, &jsonEntries); err != nil {
		return 0, fmt.Errorf("failed to decode archive payload: %w", err)
	}

	for _, entry := range jsonEntries {
		if entry.Command == "" {
			continue
		}
		if _, err := db.InsertOrReplace(entry.Command, entry.Cwd, entry.ExitCode, entry.Timestamp); err != nil {
			return 0, fmt.Errorf("failed to import entry: %w", err)
		}
	}

	return len(jsonEntries), nil
}
