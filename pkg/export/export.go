// Package export renders history to portable formats and reads them back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spideyz0r/corvus/pkg/storage"
)

// Format represents an export format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Options contains export configuration
type Options struct {
	Format Format
	Filter storage.Filter
}

// jsonEntry is the stable on-disk shape; export and import must agree on it.
type jsonEntry struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Command   string `json:"command"`
	Cwd       string `json:"cwd"`
	ExitCode  int    `json:"exit_code"`
}

// Export writes history entries to the writer in the specified format
func Export(db *storage.DB, writer io.Writer, opts Options) error {
	entries, err := db.Match(opts.Filter)
	if err != nil {
		return fmt.Errorf("failed to query entries: %w", err)
	}

	switch opts.Format {
	case FormatText:
		return exportText(entries, writer)
	case FormatJSON:
		return exportJSON(entries, writer)
	case FormatCSV:
		return exportCSV(entries, writer)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// exportText exports entries as plain text (one command per line)
func exportText(entries []*storage.HistoryEntry, writer io.Writer) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintln(writer, entry.Command); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	return nil
}

// exportJSON exports entries as a JSON array with full metadata
func exportJSON(entries []*storage.HistoryEntry, writer io.Writer) error {
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

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(jsonEntries); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// exportCSV exports entries as CSV
func exportCSV(entries []*storage.HistoryEntry, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"id", "timestamp", "command", "cwd", "exit_code"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			strconv.FormatInt(entry.ID, 10),
			time.Unix(entry.Timestamp, 0).Format(time.RFC3339),
			entry.Command,
			entry.Cwd,
			strconv.Itoa(entry.ExitCode),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	return nil
}

// ParseFormat parses a format string
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: text, json, csv)", s)
	}
}
