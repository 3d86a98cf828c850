package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/ui"
)

var todayCmd = &cobra.Command{
	Use:     "today",
	GroupID: "progress",
	Short:   "Show the day's checklist and completion percentage",
	Long: `Show the viewed day's routines with their completion marks and the
day's completion percentage.

Defaults to the current calendar day; use --date to view another one:

  habitgrid today
  habitgrid today --date 2026-08-01`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		setViewFromFlag(cmd, a)
		startupPull(a)

		fmt.Print(ui.RenderChecklist(a.ViewLabel(), a.DayPercent(), a.Checklist()))
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <routine>",
	GroupID: "progress",
	Short:   "Mark a routine complete for the day",
	Args:    cobra.ExactArgs(1),
	Run:     runSetCompletion(true),
}

var undoCmd = &cobra.Command{
	Use:     "undo <routine>",
	GroupID: "progress",
	Short:   "Mark a routine incomplete for the day",
	Args:    cobra.ExactArgs(1),
	Run:     runSetCompletion(false),
}

var toggleCmd = &cobra.Command{
	Use:     "toggle <routine>",
	GroupID: "progress",
	Short:   "Flip a routine's completion for the day",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		setViewFromFlag(cmd, a)

		r := resolveRoutine(a, args[0])
		if err := a.ToggleCompletion(r.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushSync(a)

		reportCompletion(a, r.Name)
	},
}

// runSetCompletion builds the shared done/undo command body.
func runSetCompletion(done bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		setViewFromFlag(cmd, a)

		r := resolveRoutine(a, args[0])
		if err := a.SetCompletion(a.ViewDate(), r.ID, done); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushSync(a)

		reportCompletion(a, r.Name)
	}
}

// setViewFromFlag points the view cursor at --date when given.
func setViewFromFlag(cmd *cobra.Command, a *app.App) {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return
	}
	if err := a.SetViewKey(date); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (want YYYY-MM-DD)\n", err)
		os.Exit(1)
	}
}

// reportCompletion prints the routine's new state and the day's percentage.
func reportCompletion(a *app.App, name string) {
	state := ui.RenderMuted("not done")
	for _, item := range a.Checklist() {
		if item.Routine.Name == name && item.Done {
			state = ui.RenderAccent("done")
		}
	}
	fmt.Printf("%s: %s, day at %d%%\n", name, state, a.DayPercent())
}

func init() {
	for _, cmd := range []*cobra.Command{todayCmd, doneCmd, undoCmd, toggleCmd} {
		cmd.Flags().String("date", "", fmt.Sprintf("day to act on, YYYY-MM-DD (default %s)", time.Now().Format("2006-01-02")))
		rootCmd.AddCommand(cmd)
	}
}
