package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/export"
	"github.com/spideyz0r/corvus/pkg/storage"
	"golang.org/x/term"
)

var (
	exportFormat string
	exportOutput string
	exportSearch string
	exportLimit  int

	archiveOutput string
	importInput   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history as text, JSON, or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)

		writer := os.Stdout
		if exportOutput != "-" && exportOutput != "" {
			writer, err = os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() {
				_ = writer.Close()
			}()
		}

		opts := export.Options{
			Format: format,
			Filter: storage.Filter{
				Tokens: exportSearch,
				Limit:  exportLimit,
			},
		}
		if err := export.Export(db, writer, opts); err != nil {
			return err
		}

		if exportOutput != "-" && exportOutput != "" {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", exportOutput)
		}
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Write an encrypted archive of the full history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)

		path := archiveOutput
		if path == "" {
			path = export.DefaultArchiveName()
		}

		passphrase, err := promptPassphrase(true)
		if err != nil {
			return err
		}

		info, err := export.WriteArchive(db, path, passphrase, storage.Filter{})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Archived %d entries to %s (%s)\n",
			info.Entries, info.Path, humanize.Bytes(uint64(info.Size)))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import entries from an encrypted archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importInput == "" {
			return fmt.Errorf("--archive is required")
		}

		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)

		passphrase, err := promptPassphrase(false)
		if err != nil {
			return err
		}

		count, err := export.ReadArchive(db, importInput, passphrase)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Imported %d entries\n", count)
		return nil
	},
}

// promptPassphrase reads a passphrase from the terminal without echo.
// confirm asks twice and requires both reads to match.
func promptPassphrase(confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, "Enter passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return "", fmt.Errorf("passphrase cannot be empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase confirmation: %w", err)
		}
		if !bytes.Equal(passphrase, again) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}

	return string(passphrase), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "text", "export format (text, json, csv)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "-", "output file (- for stdout)")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "filter by search term")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "limit number of results (0 = unlimited)")

	archiveCmd.Flags().StringVar(&archiveOutput, "output", "", "archive file (default: timestamped name)")

	importCmd.Flags().StringVar(&importInput, "archive", "", "archive file to import")

	rootCmd.AddCommand(exportCmd, archiveCmd, importCmd)
}
