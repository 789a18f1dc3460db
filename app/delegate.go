// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package app

import (
	"fmt"
	"sync"

	"github.com/gogpu/bulb"
)

// RendererDelegate builds a bulb renderer when the shell finishes
// launching and shows it in a single window.
type RendererDelegate struct {
	// Options are passed to bulb.New.
	Options []bulb.Option

	// Window overrides DefaultWindowConfig when non-zero.
	Window WindowConfig

	// OnFrameError receives per-frame errors. Nil logs them.
	OnFrameError func(error)

	mu       sync.Mutex
	launched bool
	renderer *bulb.Renderer
	window   Window
}

var (
	_ Delegate   = (*RendererDelegate)(nil)
	_ Terminator = (*RendererDelegate)(nil)
)

// WillFinishLaunching makes the process a regular foreground application.
func (d *RendererDelegate) WillFinishLaunching(a Application) {
	a.SetActivationPolicy(ActivationPolicyRegular)
}

// DidFinishLaunching creates the renderer, opens the window and activates
// the application. A renderer failure is returned unwrapped so callers can
// inspect the *bulb.RendererError; the window is not opened.
func (d *RendererDelegate) DidFinishLaunching(a Application) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.launched {
		return ErrAlreadyLaunched
	}
	d.launched = true

	device, err := a.Device()
	if err != nil {
		return fmt.Errorf("app: device: %w", err)
	}

	r, err := bulb.New(device, d.Options...)
	if err != nil {
		return err
	}

	cfg := d.Window
	if cfg == (WindowConfig{}) {
		cfg = DefaultWindowConfig()
	}
	w, err := a.OpenWindow(cfg, &RendererView{Renderer: r, OnError: d.OnFrameError})
	if err != nil {
		if cerr := r.Close(); cerr != nil {
			bulb.Logger().Warn("app: close renderer", "err", cerr)
		}
		return fmt.Errorf("app: open window: %w", err)
	}

	d.renderer = r
	d.window = w
	bulb.Logger().Info("app: window open", "title", w.Title(), "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	a.Activate()
	return nil
}

// ShouldTerminateAfterLastWindowClosed always reports true.
func (d *RendererDelegate) ShouldTerminateAfterLastWindowClosed() bool { return true }

// WillTerminate closes the renderer. It may be retried after a drain
// timeout.
func (d *RendererDelegate) WillTerminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.renderer == nil {
		return nil
	}
	if err := d.renderer.Close(); err != nil {
		return err
	}
	d.renderer = nil
	return nil
}

// Renderer returns the renderer built at launch, or nil.
func (d *RendererDelegate) Renderer() *bulb.Renderer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renderer
}

// MainWindow returns the window opened at launch, or nil.
func (d *RendererDelegate) MainWindow() Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}
