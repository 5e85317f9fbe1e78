// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.TP.URL = "https://tp.example.org/"
	cfg.TP.Key = "secret"
	cfg.TP.Institution = 186
	cfg.Canvas.URL = "https://canvas.example.org/"
	cfg.Canvas.Key = "token"
	cfg.Canvas.AccountID = 1
	cfg.Sync.MaxPeriod = "21h"
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing tp url", func(c *Config) { c.TP.URL = "" }},
		{"missing tp key", func(c *Config) { c.TP.Key = "" }},
		{"zero institution", func(c *Config) { c.TP.Institution = 0 }},
		{"missing canvas url", func(c *Config) { c.Canvas.URL = "" }},
		{"missing canvas key", func(c *Config) { c.Canvas.Key = "" }},
		{"zero canvas account", func(c *Config) { c.Canvas.AccountID = 0 }},
		{"missing max period", func(c *Config) { c.Sync.MaxPeriod = "" }},
		{"malformed max period", func(c *Config) { c.Sync.MaxPeriod = "autumn-2021" }},
		{"missing shadow path", func(c *Config) { c.Shadow.Path = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		expected string
	}{
		{"TP_URL", "tp.url"},
		{"CANVAS_KEY", "canvas.key"},
		{"NATS_TOPIC", "nats.topic"},
		{"SHADOW_PATH", "shadow.path"},
		{"MAX_PERIOD", "sync.max_period"},
		{"DRY_RUN", "dry_run"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TP_URL", "https://tp.example.org/")
	t.Setenv("TP_KEY", "secret")
	t.Setenv("TP_INSTITUTION", "186")
	t.Setenv("CANVAS_URL", "https://canvas.example.org/")
	t.Setenv("CANVAS_KEY", "token")
	t.Setenv("MAX_PERIOD", "22v")
	t.Setenv("IGNORE_COURSES", "BOOKING, EKSAMEN ,DUMMY")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.TP.Institution != 186 {
		t.Errorf("TP.Institution = %d, want 186", cfg.TP.Institution)
	}
	if cfg.Sync.MaxPeriod != "22v" {
		t.Errorf("Sync.MaxPeriod = %q, want 22v", cfg.Sync.MaxPeriod)
	}
	if !cfg.DryRun {
		t.Error("DryRun = false, want true")
	}
	want := []string{"BOOKING", "EKSAMEN", "DUMMY"}
	if len(cfg.Sync.IgnoreCourses) != len(want) {
		t.Fatalf("IgnoreCourses = %v, want %v", cfg.Sync.IgnoreCourses, want)
	}
	for i := range want {
		if cfg.Sync.IgnoreCourses[i] != want[i] {
			t.Errorf("IgnoreCourses[%d] = %q, want %q", i, cfg.Sync.IgnoreCourses[i], want[i])
		}
	}
}
