package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/capture"
	"github.com/spideyz0r/corvus/pkg/query"
	"github.com/spideyz0r/corvus/pkg/tui"
)

var (
	searchLimit       int
	searchCwd         string
	searchHere        bool
	searchUnder       string
	searchExit        int
	searchInteractive bool
	searchSuggest     bool
	searchUp          bool
	searchDown        bool
	searchCursor      int64
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search command history",
	Long: `Search command history. With --interactive a full-screen picker opens on
stderr and the selection is printed to stdout. With --suggest the query is a
command prefix and the most recent completions are printed. With --up/--down
the query is a prefix and the single neighbor of --cursor is printed as
"id<TAB>command", emulating prefix-scoped up-arrow recall.

The query defaults to $CORVUS_QUERY when no arguments are given. Exits with
status 1 when nothing matches.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		queryText := strings.Join(args, " ")
		if queryText == "" {
			queryText = os.Getenv(capture.EnvQuery)
		}

		db, cfg, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore(db)

		limit := searchLimit
		if limit == 0 {
			limit = cfg.Search.Limit
		}

		if searchInteractive {
			selected, ok, err := tui.Run(db, queryText, capture.Cwd(), limit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !ok {
				os.Exit(1)
			}
			fmt.Println(selected)
			return
		}

		engine := query.New(db)

		switch {
		case searchUp || searchDown:
			dir := query.Older
			if searchDown {
				dir = query.Newer
			}
			entry, err := engine.Recall(queryText, dir, searchCursor)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if entry == nil {
				os.Exit(1)
			}
			fmt.Printf("%d\t%s\n", entry.ID, entry.Command)

		case searchSuggest:
			entries, err := engine.Suggest(queryText, limit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				os.Exit(1)
			}
			for _, entry := range entries {
				fmt.Println(entry.Command)
			}

		default:
			opts := query.Options{Limit: limit}
			if searchCwd != "" {
				opts.Cwd = searchCwd
			}
			if searchHere {
				opts.Cwd = capture.Cwd()
			}
			if searchUnder != "" {
				opts.CwdUnder = searchUnder
			}
			if cmd.Flags().Changed("exit") {
				opts.ExitCode = &searchExit
			}

			entries, err := engine.Search(queryText, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				os.Exit(1)
			}
			for _, entry := range entries {
				fmt.Println(entry.Command)
			}
		}
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default: configured search limit)")
	searchCmd.Flags().StringVar(&searchCwd, "cwd", "", "only entries from this exact directory")
	searchCmd.Flags().BoolVar(&searchHere, "here", false, "only entries from the current directory")
	searchCmd.Flags().StringVar(&searchUnder, "under", "", "only entries from this directory and below")
	searchCmd.Flags().IntVar(&searchExit, "exit", 0, "only entries with this exit code")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "open the interactive picker")
	searchCmd.Flags().BoolVar(&searchSuggest, "suggest", false, "prefix autosuggest mode")
	searchCmd.Flags().BoolVar(&searchUp, "up", false, "recall: step to the next older prefix match")
	searchCmd.Flags().BoolVar(&searchDown, "down", false, "recall: step to the next newer prefix match")
	searchCmd.Flags().Int64Var(&searchCursor, "cursor", 0, "recall: id of the currently recalled entry")
	searchCmd.MarkFlagsMutuallyExclusive("up", "down")
	rootCmd.AddCommand(searchCmd)
}
