// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the settings of the bulb demo from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config is the demo configuration.
type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Log      Log      `toml:"log"`
	Headless Headless `toml:"headless"`
}

// Window describes the main window.
type Window struct {
	Title  string `toml:"title"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Renderer holds renderer options.
type Renderer struct {
	FramesInFlight int     `toml:"frames_in_flight"`
	TimeStep       float64 `toml:"time_step"`
	DrainTimeout   string  `toml:"drain_timeout"`

	// ShaderPath replaces the embedded shader when set.
	ShaderPath string `toml:"shader_path,omitempty"`

	// Backends lists GPU backends in preference order: vulkan, metal,
	// dx12, gl, software (noop in tests). Empty means the platform default.
	Backends []string `toml:"backends,omitempty"`
}

// Log configures the stderr logger.
type Log struct {
	Level string `toml:"level"`
}

// Headless renders a fixed number of frames offscreen instead of opening
// a window.
type Headless struct {
	Enabled bool `toml:"enabled"`
	Frames  int  `toml:"frames"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "Mandelbulb",
			X:      100,
			Y:      100,
			Width:  900,
			Height: 1024,
		},
		Renderer: Renderer{
			FramesInFlight: 3,
			TimeStep:       0.016,
			DrainTimeout:   "5s",
		},
		Log: Log{Level: "info"},
		Headless: Headless{
			Frames: 120,
		},
	}
}

// Dir returns the config directory: $XDG_CONFIG_HOME/bulb, falling back
// to ~/.config/bulb.
func Dir() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "bulb")
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

func xdgOrFallback(xdg, fallback string) string {
	dir := os.Getenv(xdg)
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return fallback
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	case c.Renderer.FramesInFlight < 1:
		return fmt.Errorf("frames_in_flight must be at least 1, got %d", c.Renderer.FramesInFlight)
	case c.Renderer.TimeStep <= 0:
		return fmt.Errorf("time_step must be positive, got %g", c.Renderer.TimeStep)
	case c.Headless.Frames < 0:
		return fmt.Errorf("headless frames must not be negative, got %d", c.Headless.Frames)
	}
	if _, err := c.DrainTimeout(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.Backends(); err != nil {
		return err
	}
	return nil
}

// DrainTimeout parses Renderer.DrainTimeout. Empty or "0" waits forever.
func (c *Config) DrainTimeout() (time.Duration, error) {
	if c.Renderer.DrainTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Renderer.DrainTimeout)
	if err != nil {
		return 0, fmt.Errorf("drain_timeout: %w", err)
	}
	return d, nil
}

// LogLevel parses Log.Level (debug, info, warn, error).
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

var backendNames = map[string]gputypes.Backend{
	"vulkan":   gputypes.BackendVulkan,
	"metal":    gputypes.BackendMetal,
	"dx12":     gputypes.BackendDX12,
	"gl":       gputypes.BackendGL,
	"noop":     gputypes.BackendEmpty,
	"software": gputypes.BackendEmpty,
}

// Backends maps Renderer.Backends to backend variants.
func (c *Config) Backends() ([]gputypes.Backend, error) {
	out := make([]gputypes.Backend, 0, len(c.Renderer.Backends))
	for _, name := range c.Renderer.Backends {
		b, ok := backendNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", name)
		}
		out = append(out, b)
	}
	return out, nil
}

// ShaderSource returns the contents of Renderer.ShaderPath, or "" when no
// path is configured.
func (c *Config) ShaderSource() (string, error) {
	if c.Renderer.ShaderPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Renderer.ShaderPath)
	if err != nil {
		return "", fmt.Errorf("config: shader: %w", err)
	}
	return string(data), nil
}
