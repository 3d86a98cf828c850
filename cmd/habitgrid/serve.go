package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/habitgrid/habitgrid/internal/dashboard"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Start the real-time WebSocket dashboard",
	Long: `Start a WebSocket dashboard server that broadcasts habit state to
connected clients in real time.

WebSocket messages include:
- day_update: a day's completion percentage and heatmap level changed
- sync_status: the sync status indicator changed
- stats: routine count, tracked days, and current streak

Example usage:
  habitgrid serve                # Start on default port 8080
  habitgrid serve --port 9000    # Start on custom port

Connect with a WebSocket client:
  ws://localhost:8080/ws

The full heatmap is served as JSON from /grid.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = viper.GetInt("port")
		}

		logFile, _ := cmd.Flags().GetString("log-file")
		logger := daemonLogger("[dashboard] ", logFile)

		startupPull(a)

		server := dashboard.NewServer(a, &dashboard.Config{
			Port:   port,
			Logger: logger,
		})
		dashboard.NewHandler(server, a, logger).Attach()

		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Heatmap JSON: http://localhost:%d/grid\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Dashboard server stopped")
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("log-file", "", "Write logs to this file with rotation instead of stderr")
	rootCmd.AddCommand(serveCmd)
}
