// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration. Defaults suit a local stage
// server; a config file overrides field by field.
type Config struct {
	// Server configures the connection target.
	Server ServerConfig `yaml:"server"`

	// Heartbeat configures the liveness probe.
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`

	// Reconnect configures backoff after a dropped connection.
	Reconnect ReconnectConfig `yaml:"reconnect"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the connection target.
type ServerConfig struct {
	// URL is the server endpoint. The scheme selects the transport:
	// ws/wss for WebSocket, tcp for newline-delimited JSON.
	// Default: ws://127.0.0.1:3000/ws
	URL string `yaml:"url"`

	// ConnectTimeout bounds one dial-and-join attempt.
	// Default: 10s
	ConnectTimeout string `yaml:"connect_timeout"`
}

// HeartbeatConfig configures the liveness probe.
type HeartbeatConfig struct {
	// Interval between heartbeats. Default: 15s
	Interval string `yaml:"interval"`

	// MissLimit is how many consecutive silent intervals force a
	// reconnect. Default: 3
	MissLimit int `yaml:"miss_limit"`
}

// ReconnectConfig configures backoff after a dropped connection.
type ReconnectConfig struct {
	// Base is the first backoff delay; it doubles per attempt.
	// Default: 1s
	Base string `yaml:"base"`

	// Cap bounds the backoff delay. Default: 30s
	Cap string `yaml:"cap"`

	// MaxAttempts is how many reconnect attempts run before the
	// client gives up. Default: 8
	MaxAttempts int `yaml:"max_attempts"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`
}

// Timings is the parsed duration view of a validated Config.
type Timings struct {
	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration
	ReconnectBase     time.Duration
	ReconnectCap      time.Duration
}

// Default returns the default configuration, suitable as-is for a
// stage server on localhost.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "ws://127.0.0.1:3000/ws",
			ConnectTimeout: "10s",
		},
		Heartbeat: HeartbeatConfig{
			Interval:  "15s",
			MissLimit: 3,
		},
		Reconnect: ReconnectConfig{
			Base:        "1s",
			Cap:         "30s",
			MaxAttempts: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the path in GREENROOM_CONFIG.
//
// There are no discovery fallbacks: if the variable is unset, Load
// fails, and callers fall back to Default or the --config flag
// explicitly.
func Load() (*Config, error) {
	path := os.Getenv("GREENROOM_CONFIG")
	if path == "" {
		return nil, errors.New("config: GREENROOM_CONFIG environment variable not set; " +
			"set it to the path of your greenroom.yaml, or use the --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, merging over defaults.
// Unknown keys are errors, so typos fail loudly instead of silently
// taking defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field that later code assumes is well formed.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "tcp":
	default:
		return fmt.Errorf("server.url: unsupported scheme %q", u.Scheme)
	}
	if _, err := c.Timings(); err != nil {
		return err
	}
	if c.Heartbeat.MissLimit < 1 {
		return fmt.Errorf("heartbeat.miss_limit: must be at least 1, got %d", c.Heartbeat.MissLimit)
	}
	if c.Reconnect.MaxAttempts < 1 {
		return fmt.Errorf("reconnect.max_attempts: must be at least 1, got %d", c.Reconnect.MaxAttempts)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Timings parses the duration fields.
func (c *Config) Timings() (Timings, error) {
	var t Timings
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.connect_timeout", c.Server.ConnectTimeout, &t.ConnectTimeout},
		{"heartbeat.interval", c.Heartbeat.Interval, &t.HeartbeatInterval},
		{"reconnect.base", c.Reconnect.Base, &t.ReconnectBase},
		{"reconnect.cap", c.Reconnect.Cap, &t.ReconnectCap},
	} {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timings{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if d <= 0 {
			return Timings{}, fmt.Errorf("%s: must be positive, got %s", f.name, d)
		}
		*f.dst = d
	}
	if t.ReconnectCap < t.ReconnectBase {
		return Timings{}, fmt.Errorf("reconnect.cap: %s is below reconnect.base %s", c.Reconnect.Cap, c.Reconnect.Base)
	}
	return t, nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
}
