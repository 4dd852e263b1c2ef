package history

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"podracer/pkg/cmd/setup"
	"podracer/pkg/render"
)

var (
	limit   int
	racerID int
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "show recent race results from the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of races to show")
	cmd.Flags().IntVar(&racerID, "racer", 0, "also print the wins of this racer")
	return cmd
}

func showHistory(out io.Writer) error {
	hist, err := setup.OpenHistory()
	if err != nil {
		return err
	}
	if hist == nil {
		return errors.New("no history database configured, set --history-db")
	}
	defer hist.Close()

	results, err := hist.Recent(limit)
	if err != nil {
		return err
	}
	fmt.Fprint(out, render.HistoryText(results))

	if racerID > 0 {
		stats, err := hist.StatsFor(racerID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Racer %d: %d races, %d wins\n", racerID, stats.Races, stats.Wins)
	}
	return nil
}
