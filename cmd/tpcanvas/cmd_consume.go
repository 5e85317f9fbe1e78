// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tpcanvas/internal/ledger"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/trigger"
)

var flagMetricsAddr string

func init() {
	consumeCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", ":9090",
		"listen address for Prometheus metrics, empty to disable")
	rootCmd.AddCommand(consumeCmd)
}

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume course-change notifications from the queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if flagMetricsAddr != "" {
			go serveMetrics(flagMetricsAddr)
		}

		consumer := trigger.New(
			cfg.NATS,
			a.orch.SyncCourse,
			ledger.New(),
			cfg.Sync.MaxPeriod,
			cfg.Sync.IgnoreCourses,
		)
		err = consumer.Run(cmd.Context())
		if errors.Is(err, cmd.Context().Err()) {
			logging.Info().Msg("consumer stopped")
			return nil
		}
		return err
	},
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info().Str("addr", addr).Msg("serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Warn().Err(err).Msg("metrics server stopped")
	}
}
