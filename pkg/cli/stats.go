package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spideyz0r/corvus/pkg/capture"
	"github.com/spideyz0r/corvus/pkg/stats"
	"github.com/spideyz0r/corvus/pkg/storage"
)

var (
	statsTop  int
	statsHere bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about your command history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)

		filter := storage.Filter{}
		if statsHere {
			filter.CwdUnder = capture.Cwd()
		}

		s, err := stats.Collect(db, filter)
		if err != nil {
			return err
		}

		fmt.Print(s.Format(statsTop))
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of top commands to show")
	statsCmd.Flags().BoolVar(&statsHere, "here", false, "only count commands run under the current directory")
	rootCmd.AddCommand(statsCmd)
}
