package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/sync"
	"github.com/habitgrid/habitgrid/internal/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "habitgrid",
	Short: "Track daily routines and view a year-long completion heatmap",
	Long: `Habitgrid tracks named daily routines and renders their completion
history as a year-long heatmap.

State lives as JSON blobs under the data directory (default ~/.habitgrid).
Configure a sync endpoint to mirror the state to a remote copy; everything
keeps working offline when none is set.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.habitgrid.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default $HOME/.habitgrid)")
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	viper.SetDefault("port", 8080)
	viper.SetDefault("debounce", sync.DefaultDebounce)

	rootCmd.AddGroup(
		&cobra.Group{ID: "routines", Title: "Routines:"},
		&cobra.Group{ID: "progress", Title: "Progress:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
	)
}

// initConfig reads the config file and HABITGRID_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".habitgrid")
		}
	}

	viper.SetEnvPrefix("HABITGRID")
	viper.AutomaticEnv()

	// A missing config file is fine; only report real parse failures.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}
}

// dataDir resolves the configured data directory.
func dataDir() string {
	if dir := viper.GetString("data-dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving home directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(home, ".habitgrid")
}

// openApp constructs the core over the configured data directory.
func openApp() *app.App {
	a, err := app.New(app.Config{
		DataDir: dataDir(),
		Sync: &sync.Config{
			Debounce: viper.GetDuration("debounce"),
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data directory: %v\n", err)
		os.Exit(1)
	}
	return a
}

// startupPull makes the single best-effort pull before first render, the
// same way the long-lived presentations do on startup. Failures only show
// up in the status indicator.
func startupPull(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.StartupPull(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s remote pull failed, showing local state\n", ui.RenderError("sync:"))
	}
}

// flushSync runs the pending upload immediately. One-shot commands exit
// before a debounced timer could ever fire, so after a mutation they cancel
// the timer and push inline, best effort.
func flushSync(a *app.App) {
	if a.SyncStatus() == sync.StatusDisconnected {
		return
	}

	a.Sync().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Sync().Push(ctx); err != nil && !errors.Is(err, sync.ErrUnavailable) {
		fmt.Fprintf(os.Stderr, "%s push failed, local state is saved\n", ui.RenderError("sync:"))
	}
}
