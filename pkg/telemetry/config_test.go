package telemetry

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
	if cfg.ServiceName != "meridian" {
		t.Errorf("expected service name 'meridian', got %q", cfg.ServiceName)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if !cfg.Events.Enabled {
		t.Error("events should be enabled by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantMsg: "service name",
		},
		{
			name:    "missing service version",
			mutate:  func(c *Config) { c.ServiceVersion = "" },
			wantMsg: "service version",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantMsg: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantMsg: "invalid log format",
		},
		{
			name: "bad trace exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			wantMsg: "invalid trace exporter",
		},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.Tracing.SamplingRate = 1.5 },
			wantMsg: "sampling rate",
		},
		{
			name:    "sampling rate negative",
			mutate:  func(c *Config) { c.Tracing.SamplingRate = -0.1 },
			wantMsg: "sampling rate",
		},
		{
			name: "metrics without listen address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantMsg: "listen address",
		},
		{
			name:    "zero event buffer",
			mutate:  func(c *Config) { c.Events.BufferSize = 0 },
			wantMsg: "buffer size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"unknown", "info"},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
