// Package cli wires the corvus commands. Commands that back shell hooks
// (history start/end) are tolerant: they report problems on stderr but never
// fail, because a broken history tool must not break the shell.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/config"
	"github.com/spideyz0r/corvus/pkg/storage"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "corvus",
	Short: "corvus - structured shell history",
	Long: `corvus replaces the flat shell history file with a durable, queryable store.
Commands are captured with their working directory and exit code, deduplicated,
and indexed for full-text search. Run "corvus init" once to set up shell hooks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to history database (overrides config)")
}

// Execute runs the command tree.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore loads configuration and opens the history database, applying any
// pending migrations. The --db flag wins over CORVUS_DB_PATH and the config
// file.
func openStore() (*storage.DB, *config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := dbPath
	if path == "" {
		path = cfg.GetDatabasePath()
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return db, cfg, nil
}

func closeStore(db *storage.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
	}
}
