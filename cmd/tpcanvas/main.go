// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command tpcanvas keeps Canvas LMS calendars synchronized with the TP
// timetable service.
//
// Routine operation is the consume subcommand, which applies change
// notifications from the queue as they arrive. The remaining subcommands
// are operator tools: full-semester runs, single-course runs and
// diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tpcanvas/internal/canvas"
	"tpcanvas/internal/config"
	"tpcanvas/internal/engine"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/shadow"
	"tpcanvas/internal/tp"
)

var (
	cfg        *config.Config
	flagDryRun bool
)

var rootCmd = &cobra.Command{
	Use:           "tpcanvas",
	Short:         "Synchronize TP timetables into Canvas calendars",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if flagDryRun {
			cfg.DryRun = true
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		if cfg.DryRun {
			logging.Info().Msg("dry run: mutating operations will be logged, not executed")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false,
		"log mutating operations instead of executing them")
}

// app wires the clients, the shadow store and the orchestrator from the
// loaded configuration.
type app struct {
	orch   *engine.Orchestrator
	store  *shadow.Store
	canvas *canvas.Client
}

func newApp() (*app, error) {
	store, err := shadow.Open(cfg.Shadow.Path, cfg.DryRun)
	if err != nil {
		return nil, err
	}
	tpClient := tp.New(cfg.TP.URL, cfg.TP.Key, cfg.TP.Institution)
	canvasClient := canvas.New(cfg.Canvas.URL, cfg.Canvas.Key, cfg.Canvas.AccountID, cfg.DryRun)
	return &app{
		orch:   engine.New(tpClient, canvasClient, store, cfg.TP.Institution, cfg.Sync.MaxPeriod),
		store:  store,
		canvas: canvasClient,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("closing shadow store")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
