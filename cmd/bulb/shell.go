// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/app"
	"github.com/gogpu/bulb/backend/wgpu"
	"github.com/gogpu/bulb/internal/config"
	"github.com/gogpu/gogpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var errNotReady = errors.New("bulb: GPU context not ready")

// shell binds a gogpu App to the app.Application hooks. gogpu creates its
// window and device before the first draw callback, so launching happens
// there.
type shell struct {
	gapp *gogpu.App

	policy  app.ActivationPolicy
	device  *wgpu.Device
	format  gputypes.TextureFormat
	surface *wgpu.ViewSurface
	handler app.FrameHandler
	title   string
}

var _ app.Application = (*shell)(nil)

// SetActivationPolicy records p; gogpu windows are always regular.
func (s *shell) SetActivationPolicy(p app.ActivationPolicy) { s.policy = p }

func (s *shell) Device() (bulb.Device, error) {
	if s.device != nil {
		return s.device, nil
	}
	provider := s.gapp.GPUContextProvider()
	if provider == nil {
		return nil, errNotReady
	}
	d, err := wgpu.FromProvider(provider)
	if err != nil {
		return nil, err
	}
	s.device = d
	s.format = provider.SurfaceFormat()
	return d, nil
}

// OpenWindow binds h to the gogpu window. The window itself already exists.
func (s *shell) OpenWindow(cfg app.WindowConfig, h app.FrameHandler) (app.Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.device == nil {
		return nil, errNotReady
	}
	if s.handler != nil {
		return nil, app.ErrWindowOpen
	}
	s.surface = wgpu.NewViewSurface(s.device, s.format)
	s.handler = h
	s.title = cfg.Title
	return shellWindow{s}, nil
}

func (s *shell) Activate() {
	bulb.Logger().Debug("bulb: activated", "policy", s.policy)
}

// drawFrame attaches the current surface view and runs the frame handler.
func (s *shell) drawFrame(dc *gogpu.Context) {
	if s.handler == nil {
		return
	}
	view, ok := any(dc.SurfaceView()).(hal.TextureView)
	if !ok || view == nil {
		bulb.Logger().Debug("bulb: no surface view this frame")
		return
	}
	sw, sh := dc.SurfaceSize()
	if err := s.surface.Attach(view, int(sw), int(sh)); err != nil {
		bulb.Logger().Debug("bulb: attach surface", "err", err)
		return
	}
	s.handler.OnFrame(s.surface)
	s.surface.Detach()
}

// destroy releases the surface and the device reference.
func (s *shell) destroy() {
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}
	s.handler = nil
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
}

type shellWindow struct{ s *shell }

func (w shellWindow) Title() string { return w.s.title }

func (w shellWindow) Close() error {
	w.s.gapp.Quit()
	return nil
}

// runWindowed opens a gogpu window and renders into it until it closes.
func runWindowed(cfg *config.Config, opts []bulb.Option) error {
	wc := windowConfig(cfg)
	gapp := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(wc.Title).
		WithSize(wc.Width, wc.Height).
		WithContinuousRender(true))

	s := &shell{gapp: gapp}
	delegate := &app.RendererDelegate{Window: wc}
	var launchErr error
	launched := false

	gapp.OnDraw(func(dc *gogpu.Context) {
		if !launched {
			if _, err := s.Device(); errors.Is(err, errNotReady) {
				return
			}
			launched = true
			delegate.Options = append(opts, bulb.WithPixelFormats(s.format, bulb.DefaultDepthFormat))
			if err := app.Launch(s, delegate); err != nil {
				launchErr = err
				gapp.Quit()
				return
			}
			bulb.Logger().Info("bulb: backend", "backend", dc.Backend(), "gpu", s.device.Info())
		}
		s.drawFrame(dc)
	})

	gapp.OnClose(func() {
		if err := app.Terminate(delegate); err != nil {
			bulb.Logger().Warn("bulb: terminate", "err", err)
		}
		s.destroy()
	})

	if err := gapp.Run(); err != nil {
		return fmt.Errorf("bulb: run: %w", err)
	}
	return launchErr
}
