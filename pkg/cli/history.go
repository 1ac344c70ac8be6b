package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/capture"
	"github.com/spideyz0r/corvus/pkg/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Capture protocol endpoints for shell hooks",
}

// historyStartCmd begins a capture. It prints the session id the precmd hook
// must hand back to "history end". Failures are reported on stderr but the
// exit code stays zero: the shell's prompt cycle must never be broken by its
// history tool.
var historyStartCmd = &cobra.Command{
	Use:   "start -- <command>",
	Short: "Record a command about to execute; prints the session id",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		command := strings.Join(args, " ")

		db, cfg, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "corvus: %v\n", err)
			return
		}
		defer closeStore(db)

		tracker := session.New(db, cfg.Ignore.Patterns)
		id, err := tracker.Start(command, capture.Cwd())
		if err != nil {
			fmt.Fprintf(os.Stderr, "corvus: %v\n", err)
			return
		}

		// Ignored or empty commands produce no session; print nothing so the
		// hook leaves CORVUS_SESSION unset.
		if id != "" {
			fmt.Println(id)
		}
	},
}

var historyEndExit int

// historyEndCmd completes a capture. A missing or already-finalized session
// id is silently ignored; stale environments happen (new shells inherit
// CORVUS_SESSION, crashes leave it behind) and must not produce noise.
var historyEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "Record the exit code of a finished command",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := os.Getenv(capture.EnvSession)
		if len(args) > 0 {
			sessionID = args[0]
		}
		if sessionID == "" {
			return
		}

		db, cfg, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "corvus: %v\n", err)
			return
		}
		defer closeStore(db)

		tracker := session.New(db, cfg.Ignore.Patterns)
		if _, _, err := tracker.End(sessionID, historyEndExit); err != nil {
			fmt.Fprintf(os.Stderr, "corvus: %v\n", err)
		}
	},
}

func init() {
	historyEndCmd.Flags().IntVar(&historyEndExit, "exit", 0, "exit code of the finished command")
	historyCmd.AddCommand(historyStartCmd, historyEndCmd)
	rootCmd.AddCommand(historyCmd)
}
