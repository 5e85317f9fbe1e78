// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates tpcanvas configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional
// YAML config file, then environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"tpcanvas/internal/models"
)

// Config is the root configuration for the application.
type Config struct {
	TP              TPConfig      `koanf:"tp"`
	Canvas          CanvasConfig  `koanf:"canvas"`
	CanvasSecondary CanvasConfig  `koanf:"canvas_secondary"`
	NATS            NATSConfig    `koanf:"nats"`
	Shadow          ShadowConfig  `koanf:"shadow"`
	Sync            SyncConfig    `koanf:"sync"`
	Logging         LoggingConfig `koanf:"logging"`

	// DryRun short-circuits every mutating call (event create/delete,
	// shadow-store write, queue ack side effects) into a logged no-op.
	DryRun bool `koanf:"dry_run"`
}

// TPConfig holds the TP (source scheduling API) connection settings.
type TPConfig struct {
	URL         string `koanf:"url" validate:"required,url"`
	Key         string `koanf:"key" validate:"required"`
	Institution int    `koanf:"institution" validate:"required,gt=0"`
}

// CanvasConfig holds a Canvas (mirror calendar API) connection.
// CanvasSecondary may be left empty unless environment comparison is used.
type CanvasConfig struct {
	URL       string `koanf:"url"`
	Key       string `koanf:"key"`
	AccountID int    `koanf:"account_id"`
}

// NATSConfig holds the durable change-queue connection settings.
type NATSConfig struct {
	URL           string        `koanf:"url" validate:"required"`
	Stream        string        `koanf:"stream"`
	Topic         string        `koanf:"topic" validate:"required"`
	DurableName   string        `koanf:"durable_name"`
	QueueGroup    string        `koanf:"queue_group"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// ShadowConfig holds the shadow-store settings.
type ShadowConfig struct {
	// Path is the BadgerDB directory for shadow records.
	Path string `koanf:"path" validate:"required"`
}

// SyncConfig holds the reconciliation settings.
type SyncConfig struct {
	// MaxPeriod bounds how far forward term-window expansion may go,
	// as a period string such as "21h".
	MaxPeriod string `koanf:"max_period" validate:"required"`

	// IgnoreCourses lists substrings of course ids that must never be
	// synchronized (booking and exam placeholders).
	IgnoreCourses []string `koanf:"ignore_courses"`
}

// LoggingConfig holds the logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Canvas.URL == "" || c.Canvas.Key == "" {
		return fmt.Errorf("invalid configuration: canvas.url and canvas.key are required")
	}
	if c.Canvas.AccountID <= 0 {
		return fmt.Errorf("invalid configuration: canvas.account_id must be positive")
	}
	if _, err := models.ParsePeriod(c.Sync.MaxPeriod); err != nil {
		return fmt.Errorf("invalid configuration: sync.max_period: %w", err)
	}
	return nil
}

// HasSecondaryCanvas reports whether an environment-comparison target is configured.
func (c *Config) HasSecondaryCanvas() bool {
	return c.CanvasSecondary.URL != "" && c.CanvasSecondary.Key != ""
}
