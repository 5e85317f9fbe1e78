// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for the sync engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsCreated counts calendar events created in Canvas.
	EventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tpcanvas_events_created_total",
			Help: "Total number of calendar events created in Canvas",
		},
	)

	// EventsDeleted counts calendar events deleted from Canvas, by outcome
	// (deleted, already_gone, failed).
	EventsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpcanvas_events_deleted_total",
			Help: "Total number of calendar event delete attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SyncRuns counts course reconciliation passes, by result (ok, failed).
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpcanvas_sync_runs_total",
			Help: "Total number of per-course reconciliation passes by result",
		},
		[]string{"result"},
	)

	// HTTPRetries counts retried HTTP attempts, by target API (tp, canvas).
	HTTPRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpcanvas_http_retries_total",
			Help: "Total number of retried HTTP requests by target API",
		},
		[]string{"target"},
	)

	// QueueMessages counts consumed change notifications, by disposition
	// (synced, stale, ignored, malformed, failed).
	QueueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpcanvas_queue_messages_total",
			Help: "Total number of consumed change notifications by disposition",
		},
		[]string{"disposition"},
	)
)
