// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package app

import (
	"fmt"
	"sync"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/backend/wgpu"
	"github.com/gogpu/gputypes"
)

// Headless is an Application without a display. Its single window renders
// into a wgpu.OffscreenSurface and frames are driven by RunFrames.
//
// Headless does not own the device; the caller releases it after Close.
type Headless struct {
	// ColorFormat is the offscreen color format. It must match the
	// renderer's pipeline.
	ColorFormat gputypes.TextureFormat

	device *wgpu.Device

	mu      sync.Mutex
	policy  ActivationPolicy
	active  bool
	window  *headlessWindow
	surface *wgpu.OffscreenSurface
	handler FrameHandler
}

var _ Application = (*Headless)(nil)

// NewHeadless returns a headless application rendering on d.
func NewHeadless(d *wgpu.Device) *Headless {
	return &Headless{
		ColorFormat: bulb.DefaultColorFormat,
		device:      d,
		policy:      ActivationPolicyProhibited,
	}
}

// SetActivationPolicy records p.
func (h *Headless) SetActivationPolicy(p ActivationPolicy) {
	h.mu.Lock()
	h.policy = p
	h.mu.Unlock()
}

// ActivationPolicy returns the recorded policy.
func (h *Headless) ActivationPolicy() ActivationPolicy {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.policy
}

// Device returns the wgpu device.
func (h *Headless) Device() (bulb.Device, error) {
	if h.device == nil {
		return nil, ErrNoDevice
	}
	return h.device, nil
}

// OpenWindow creates the offscreen surface. Only one window may be open.
func (h *Headless) OpenWindow(cfg WindowConfig, handler FrameHandler) (Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if h.device == nil {
		return nil, ErrNoDevice
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window != nil {
		return nil, ErrWindowOpen
	}

	s, err := wgpu.NewOffscreenSurface(h.device, cfg.Width, cfg.Height, h.ColorFormat)
	if err != nil {
		return nil, fmt.Errorf("app: offscreen surface: %w", err)
	}
	h.surface = s
	h.handler = handler
	h.window = &headlessWindow{app: h, title: cfg.Title}
	return h.window, nil
}

// Activate marks the application active.
func (h *Headless) Activate() {
	h.mu.Lock()
	h.active = true
	h.mu.Unlock()
}

// Active reports whether Activate was called.
func (h *Headless) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Surface returns the open window's surface, or nil.
func (h *Headless) Surface() *wgpu.OffscreenSurface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface
}

// RunFrames calls the window's frame handler n times and returns the
// number of frames presented so far.
func (h *Headless) RunFrames(n int) (uint64, error) {
	h.mu.Lock()
	s, handler := h.surface, h.handler
	h.mu.Unlock()
	if s == nil {
		return 0, ErrNoWindow
	}

	for range n {
		handler.OnFrame(s)
	}
	return s.Presented(), nil
}

// Close closes the window, if any.
func (h *Headless) Close() error {
	h.mu.Lock()
	w := h.window
	h.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

type headlessWindow struct {
	app   *Headless
	title string
}

func (w *headlessWindow) Title() string { return w.title }

// Close destroys the offscreen surface. Textures still referenced by
// in-flight frames are released once those frames complete.
func (w *headlessWindow) Close() error {
	h := w.app
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window != w {
		return nil
	}
	h.surface.Destroy()
	h.surface = nil
	h.handler = nil
	h.window = nil
	return nil
}
