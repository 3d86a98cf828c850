package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/habitgrid/habitgrid/internal/cache"
	"github.com/habitgrid/habitgrid/internal/daemon"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Run the watch daemon",
	Long: `Run the daemon that watches the data directory for blob changes made
by other processes, reloads the store when they settle, keeps the sqlite day
cache fresh, and schedules debounced pushes to the remote endpoint.

Example usage:
  habitgrid watch                          # log to stderr
  habitgrid watch --log-file watch.log     # rotate logs with lumberjack

This blocks until interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.Close()

		logFile, _ := cmd.Flags().GetString("log-file")
		logger := daemonLogger("[watch] ", logFile)

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

		config := daemon.DefaultConfig()
		config.Logger = logger

		d, err := daemon.NewWithConfig(a, db, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create daemon: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: daemon failed: %v\n", err)
			os.Exit(1)
		}
	},
}

// daemonLogger builds the long-lived process logger: stderr by default, a
// size-rotated file when --log-file is set.
func daemonLogger(prefix, logFile string) *log.Logger {
	var w io.Writer = os.Stderr
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return log.New(w, prefix, log.LstdFlags)
}

func init() {
	watchCmd.Flags().String("log-file", "", "Write logs to this file with rotation instead of stderr")
	rootCmd.AddCommand(watchCmd)
}
