package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/schema"
	"github.com/habitgrid/habitgrid/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <name>",
	GroupID: "routines",
	Short:   "Add a daily routine",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		r, err := a.AddRoutine(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushSync(a)

		fmt.Printf("Added %s %s\n", ui.RenderAccent(r.Name), ui.RenderMuted(r.ID))
	},
}

var renameCmd = &cobra.Command{
	Use:     "rename <routine> <new-name>",
	GroupID: "routines",
	Short:   "Rename a routine",
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		r := resolveRoutine(a, args[0])
		name := strings.Join(args[1:], " ")
		if err := a.RenameRoutine(r.ID, name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushSync(a)

		fmt.Printf("Renamed %s to %s\n", ui.RenderMuted(r.Name), ui.RenderAccent(name))
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <routine>",
	GroupID: "routines",
	Short:   "Delete a routine and its completion history",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		r := resolveRoutine(a, args[0])
		if err := a.DeleteRoutine(r.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		flushSync(a)

		fmt.Printf("Deleted %s\n", ui.RenderAccent(r.Name))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "routines",
	Short:   "List routines",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		routines := a.Routines()
		if len(routines) == 0 {
			fmt.Println(ui.RenderMuted("no routines yet, add one with `habitgrid add`"))
			return
		}
		for _, r := range routines {
			fmt.Printf("%s  %s\n", ui.RenderAccent(r.Name), ui.RenderMuted(r.ID))
		}
	},
}

// resolveRoutine matches arg against the collection: exact ID first, then a
// unique case-insensitive name, then a unique ID prefix. Exits with a usable
// message when nothing (or more than one thing) matches.
func resolveRoutine(a *app.App, arg string) schema.Routine {
	if r, ok := a.Store().RoutineByID(arg); ok {
		return r
	}

	var matches []schema.Routine
	for _, r := range a.Routines() {
		if strings.EqualFold(r.Name, arg) || strings.HasPrefix(r.ID, arg) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0]
	case 0:
		fmt.Fprintf(os.Stderr, "Error: no routine matches %q (try `habitgrid list`)\n", arg)
	default:
		fmt.Fprintf(os.Stderr, "Error: %q is ambiguous, matching:\n", arg)
		for _, r := range matches {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", r.Name, r.ID)
		}
	}
	os.Exit(1)
	return schema.Routine{}
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
}
