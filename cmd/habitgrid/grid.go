package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/cache"
	"github.com/habitgrid/habitgrid/internal/ui"
)

var gridCmd = &cobra.Command{
	Use:     "grid",
	GroupID: "progress",
	Short:   "Render the year-long completion heatmap",
	Long: `Render the rolling-year heatmap: one column per week, one row per
weekday starting Sunday, brighter cells for higher completion. Cells after
the current day render empty.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		startupPull(a)

		fmt.Print(ui.RenderGrid(a.Grid(), a.MonthSpans()))
		if streak := a.Streak(); streak > 0 {
			fmt.Printf("\n%s %d day(s)\n", ui.RenderAccent("Streak:"), streak)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "progress",
	Short:   "Show overall completion statistics",
	Long: `Show summary statistics over the whole ledger: tracked days, fully
completed days, and the current streak. Reads from the sqlite day cache,
refreshing it first so the numbers match the blobs.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		db, err := cache.Open(filepath.Join(dataDir(), "cache.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open day cache: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to init day cache: %v\n", err)
			os.Exit(1)
		}
		if err := db.Refresh(a.Routines(), a.Store().LedgerCopy()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to refresh day cache: %v\n", err)
			os.Exit(1)
		}

		totals, err := db.GetTotals()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to query totals: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Routines:      %d\n", len(a.Routines()))
		fmt.Printf("Tracked days:  %d\n", totals.Days)
		fmt.Printf("Perfect days:  %d\n", totals.PerfectDays)
		fmt.Printf("Streak:        %d day(s)\n", a.Streak())
	},
}

func init() {
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(statsCmd)
}
