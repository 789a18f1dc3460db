// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command bulb renders a raymarched Mandelbulb in a window.
//
// Usage:
//
//	bulb [-config path] [-headless] [-frames n] [-write-config]
//
// Settings are read from $XDG_CONFIG_HOME/bulb/config.toml unless -config
// names another file. With -headless the frames are rendered offscreen on
// the first available backend and the command exits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/app"
	"github.com/gogpu/bulb/backend/wgpu"
	"github.com/gogpu/bulb/internal/config"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath(), "config file")
		headless   = flag.Bool("headless", false, "render offscreen and exit")
		frames     = flag.Int("frames", -1, "frames to render in headless mode (default from config)")
		writeCfg   = flag.Bool("write-config", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bulb:", err)
		os.Exit(2)
	}
	if *headless {
		cfg.Headless.Enabled = true
	}
	if *frames >= 0 {
		cfg.Headless.Frames = *frames
	}

	if *writeCfg {
		if err := config.Save(*configPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "bulb:", err)
			os.Exit(1)
		}
		return
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	bulb.SetLogger(logger)
	hal.SetLogger(logger)

	opts, err := rendererOptions(&cfg)
	if err != nil {
		logger.Error("bulb: options", "err", err)
		os.Exit(2)
	}

	if cfg.Headless.Enabled {
		err = runHeadless(&cfg, opts)
	} else {
		err = runWindowed(&cfg, opts)
	}
	if err != nil {
		logger.Error("bulb: exit", "err", err)
		os.Exit(1)
	}
}

// rendererOptions maps the renderer section of cfg to bulb options.
func rendererOptions(cfg *config.Config) ([]bulb.Option, error) {
	drain, err := cfg.DrainTimeout()
	if err != nil {
		return nil, err
	}
	opts := []bulb.Option{
		bulb.WithFramesInFlight(cfg.Renderer.FramesInFlight),
		bulb.WithTimeStep(float32(cfg.Renderer.TimeStep)),
		bulb.WithDrainTimeout(drain),
	}
	src, err := cfg.ShaderSource()
	if err != nil {
		return nil, err
	}
	if src != "" {
		opts = append(opts, bulb.WithShaderSource(src))
	}
	return opts, nil
}

func windowConfig(cfg *config.Config) app.WindowConfig {
	return app.WindowConfig{
		Title:  cfg.Window.Title,
		X:      cfg.Window.X,
		Y:      cfg.Window.Y,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Style:  app.WindowStyleTitled | app.WindowStyleClosable,
	}
}

func runHeadless(cfg *config.Config, opts []bulb.Option) error {
	backends, err := cfg.Backends()
	if err != nil {
		return err
	}
	device, err := wgpu.Open(wgpu.Config{Backends: backends, Label: "bulb"})
	if err != nil {
		return err
	}
	defer device.Release()

	h := app.NewHeadless(device)
	delegate := &app.RendererDelegate{Options: opts, Window: windowConfig(cfg)}
	if err := app.Launch(h, delegate); err != nil {
		return err
	}
	defer h.Close()

	r := delegate.Renderer()
	presented, err := renderHeadless(h, delegate, cfg.Headless.Frames)
	if err != nil {
		return err
	}
	stats := r.Stats()
	bulb.Logger().Info("bulb: headless run finished",
		"presented", presented,
		"submitted", stats.Submitted,
		"completed", stats.Completed,
		"skipped", stats.Skipped)
	return nil
}

// renderHeadless runs frames on h and terminates d whether or not the run
// succeeds.
func renderHeadless(h *app.Headless, d app.Delegate, frames int) (presented uint64, err error) {
	defer func() {
		if terr := app.Terminate(d); err == nil {
			err = terr
		}
	}()
	return h.RunFrames(frames)
}
