package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/capture"
	"github.com/spideyz0r/corvus/pkg/config"
	"github.com/spideyz0r/corvus/pkg/storage"
)

var initPrint bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the database, config file, and shell hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		// --print emits the hook script for manual sourcing instead of
		// touching any RC file.
		if initPrint {
			cfg, err := config.LoadDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			shell, err := capture.DetectShell()
			if err != nil {
				return err
			}
			content, err := capture.GetHookContent(shell, cfg.GetKeybinding())
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		}

		fmt.Println("corvus - setup")
		fmt.Println("==============")
		fmt.Println()

		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		corvusDir := filepath.Join(home, ".corvus")
		if err := os.MkdirAll(corvusDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", corvusDir, err)
		}
		fmt.Printf("✓ Created directory: %s\n", corvusDir)

		// Opening runs migrations; a fresh database comes up at the current
		// schema, an old one is upgraded in place.
		db, err := storage.Open(cfg.GetDatabasePath())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		_ = db.Close()
		fmt.Printf("✓ Initialized database: %s\n", cfg.GetDatabasePath())

		configPath := filepath.Join(corvusDir, "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Printf("✓ Created config file: %s\n", configPath)
		} else {
			fmt.Printf("✓ Config file already exists: %s\n", configPath)
		}

		shell, err := capture.DetectShell()
		if err != nil {
			return fmt.Errorf("failed to detect shell: %w (set SHELL and retry)", err)
		}
		fmt.Printf("✓ Detected shell: %s\n", shell)

		rcFile, err := capture.GetRCFile(shell)
		if err != nil {
			return err
		}

		result, err := capture.InstallHook(shell, rcFile, cfg.GetKeybinding())
		if err != nil {
			return fmt.Errorf("failed to install hooks: %w", err)
		}

		switch {
		case result.Installed:
			fmt.Printf("✓ Installed shell hooks (backup: %s)\n", result.BackupFile)
		case result.KeybindingUpdate:
			fmt.Printf("✓ Shell hooks already installed (updated keybinding to %s)\n", cfg.GetKeybinding())
		default:
			fmt.Printf("✓ Shell hooks already installed\n")
		}

		msg := fmt.Sprintf("Done. Restart your shell and press %s to search.", strings.ToUpper(cfg.GetKeybinding()))
		fmt.Println("\n" + strings.Repeat("=", len(msg)))
		fmt.Println(msg)
		fmt.Println(strings.Repeat("=", len(msg)))

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initPrint, "print", false, "print the hook script instead of installing it")
	rootCmd.AddCommand(initCmd)
}
