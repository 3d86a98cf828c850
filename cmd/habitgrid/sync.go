package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync with the remote endpoint now",
	Long: `Pull the remote state, merge it into the local blobs, and push the
merged result back. Remote routine definitions replace local ones wholesale;
completion records merge per date key with remote days winning.

Requires a configured endpoint; see 'habitgrid endpoint set'.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := a.SyncNow(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sync failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s local and remote state are in sync\n", ui.RenderAccent("Synced:"))
	},
}

var endpointCmd = &cobra.Command{
	Use:     "endpoint",
	GroupID: "sync",
	Short:   "Manage the sync endpoint",
}

var endpointSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Set the sync endpoint URL",
	Long: `Set the remote endpoint the coordinator syncs with. The URL must be
a Google Apps Script web app deployment:

  habitgrid endpoint set https://script.google.com/macros/s/DEPLOYMENT/exec`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		if err := a.Configure(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Endpoint set, status: %s\n", ui.RenderAccent(a.SyncStatus().String()))
	},
}

var endpointClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the sync endpoint and go offline",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		if err := a.Configure(""); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Endpoint cleared, sync disabled")
	},
}

var endpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured endpoint and sync status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		endpoint := a.Store().Endpoint()
		if endpoint == "" {
			fmt.Println(ui.RenderMuted("no endpoint configured"))
			return
		}

		fmt.Printf("Endpoint: %s\n", endpoint)
		fmt.Printf("Status:   %s\n", ui.RenderAccent(a.SyncStatus().String()))
	},
}

func init() {
	endpointCmd.AddCommand(endpointSetCmd)
	endpointCmd.AddCommand(endpointClearCmd)
	endpointCmd.AddCommand(endpointShowCmd)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(endpointCmd)
}
