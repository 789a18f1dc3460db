// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Clear values applied at the start of every render pass.
var (
	DefaultClearColor = gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

	DefaultClearDepth float32 = 1
)

// RenderTarget is one frame's color and depth views.
type RenderTarget struct {
	colorView   hal.TextureView
	depthView   hal.TextureView
	colorFormat gputypes.TextureFormat
	depthFormat gputypes.TextureFormat
	clearColor  gputypes.Color
	clearDepth  float32
}

var _ bulb.RenderTarget = (*RenderTarget)(nil)

// ColorFormat returns the color attachment format.
func (t *RenderTarget) ColorFormat() gputypes.TextureFormat { return t.colorFormat }

// DepthFormat returns the depth attachment format.
func (t *RenderTarget) DepthFormat() gputypes.TextureFormat { return t.depthFormat }

// attachment is a texture and its default view.
type attachment struct {
	tex  hal.Texture
	view hal.TextureView
}

func createAttachment(d *Device, label string, w, h int, format gputypes.TextureFormat, usage gputypes.TextureUsage) (attachment, error) {
	tex, err := d.hal.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return attachment{}, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := d.hal.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		d.hal.DestroyTexture(tex)
		return attachment{}, fmt.Errorf("create %s view: %w", label, err)
	}
	return attachment{tex: tex, view: view}, nil
}

// release destroys the attachment after in-flight frames are done with it.
func (a *attachment) release(d *Device, what string) {
	if a.tex == nil {
		return
	}
	tex, view := a.tex, a.view
	a.tex, a.view = nil, nil
	d.retire(what, func() {
		d.hal.DestroyTextureView(view)
		d.hal.DestroyTexture(tex)
	})
}

// depthBuffer is a depth attachment kept at the drawable size.
type depthBuffer struct {
	attachment
	format        gputypes.TextureFormat
	width, height int
}

// ensure recreates the texture when the size changed. The old texture is
// retired, not destroyed, since frames still in flight may use it.
func (b *depthBuffer) ensure(d *Device, label string, w, h int) error {
	if b.tex != nil && b.width == w && b.height == h {
		return nil
	}
	a, err := createAttachment(d, label, w, h, b.format, gputypes.TextureUsageRenderAttachment)
	if err != nil {
		return err
	}
	b.swap(d, label, a, w, h)
	return nil
}

// swap installs a and retires the previous texture.
func (b *depthBuffer) swap(d *Device, label string, a attachment, w, h int) {
	b.attachment.release(d, label)
	b.attachment = a
	b.width, b.height = w, h
	bulb.Logger().Debug("wgpu: depth buffer resized", "label", label, "width", w, "height", h)
}

// frameDrawable counts presentations on its surface.
type frameDrawable struct {
	presented *atomic.Uint64
}

func (f frameDrawable) Present() { f.presented.Add(1) }

// ViewSurface renders into a texture view owned by the host, typically the
// swapchain image of a window event loop. The host attaches the view and
// its size before each frame and presents the image itself afterwards.
type ViewSurface struct {
	device      *Device
	label       string
	colorFormat gputypes.TextureFormat
	clearColor  gputypes.Color

	view          hal.TextureView
	width, height int
	depth         depthBuffer
	presented     atomic.Uint64
}

var _ bulb.Surface = (*ViewSurface)(nil)

// NewViewSurface returns a surface whose color attachments have
// colorFormat. The depth attachment uses bulb.DefaultDepthFormat.
func NewViewSurface(d *Device, colorFormat gputypes.TextureFormat) *ViewSurface {
	return &ViewSurface{
		device:      d,
		label:       d.label + "_view_surface",
		colorFormat: colorFormat,
		clearColor:  DefaultClearColor,
		depth:       depthBuffer{format: bulb.DefaultDepthFormat},
	}
}

// SetClearColor changes the color the pass clears to.
func (s *ViewSurface) SetClearColor(c gputypes.Color) { s.clearColor = c }

// Attach sets the view and drawable size for the next frame.
func (s *ViewSurface) Attach(view hal.TextureView, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if view == nil {
		return ErrNoView
	}
	s.view, s.width, s.height = view, width, height
	return nil
}

// Detach clears the attached view.
func (s *ViewSurface) Detach() { s.view = nil }

// DrawableSize returns the size passed to the last Attach.
func (s *ViewSurface) DrawableSize() (int, int) { return s.width, s.height }

// CurrentRenderTarget pairs the attached view with a depth buffer of the
// same size.
func (s *ViewSurface) CurrentRenderTarget() (bulb.RenderTarget, error) {
	if s.view == nil {
		return nil, ErrNoView
	}
	if err := s.depth.ensure(s.device, s.label+"_depth", s.width, s.height); err != nil {
		return nil, err
	}
	return &RenderTarget{
		colorView:   s.view,
		depthView:   s.depth.view,
		colorFormat: s.colorFormat,
		depthFormat: s.depth.format,
		clearColor:  s.clearColor,
		clearDepth:  DefaultClearDepth,
	}, nil
}

// CurrentDrawable returns the drawable for the attached view.
func (s *ViewSurface) CurrentDrawable() (bulb.Drawable, error) {
	if s.view == nil {
		return nil, ErrNoView
	}
	return frameDrawable{presented: &s.presented}, nil
}

// Presented returns how many frames were submitted for presentation.
func (s *ViewSurface) Presented() uint64 { return s.presented.Load() }

// Destroy releases the depth buffer.
func (s *ViewSurface) Destroy() {
	s.view = nil
	s.depth.release(s.device, s.label+"_depth")
}

// OffscreenSurface owns its color and depth textures. It backs headless
// rendering and tests.
type OffscreenSurface struct {
	device        *Device
	label         string
	colorFormat   gputypes.TextureFormat
	clearColor    gputypes.Color
	width, height int

	color     attachment
	depth     depthBuffer
	presented atomic.Uint64
}

var _ bulb.Surface = (*OffscreenSurface)(nil)

// NewOffscreenSurface allocates a width x height color target with
// colorFormat and a matching depth buffer.
func NewOffscreenSurface(d *Device, width, height int, colorFormat gputypes.TextureFormat) (*OffscreenSurface, error) {
	s := &OffscreenSurface{
		device:      d,
		label:       d.label + "_offscreen",
		colorFormat: colorFormat,
		clearColor:  DefaultClearColor,
		depth:       depthBuffer{format: bulb.DefaultDepthFormat},
	}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize reallocates the attachments. Old textures are retired until the
// frames using them complete. On failure the surface keeps its previous
// attachments and size.
func (s *OffscreenSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if s.color.tex != nil && s.width == width && s.height == height {
		return nil
	}

	color, err := createAttachment(s.device, s.label+"_color", width, height, s.colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return err
	}
	depth, err := createAttachment(s.device, s.label+"_depth", width, height, s.depth.format,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		color.release(s.device, s.label+"_color")
		return err
	}

	s.color.release(s.device, s.label+"_color")
	s.color = color
	s.depth.swap(s.device, s.label+"_depth", depth, width, height)
	s.width, s.height = width, height
	return nil
}

// SetClearColor changes the color the pass clears to.
func (s *OffscreenSurface) SetClearColor(c gputypes.Color) { s.clearColor = c }

// DrawableSize returns the texture size.
func (s *OffscreenSurface) DrawableSize() (int, int) { return s.width, s.height }

// CurrentRenderTarget returns the owned color and depth views.
func (s *OffscreenSurface) CurrentRenderTarget() (bulb.RenderTarget, error) {
	if s.color.view == nil {
		return nil, ErrNoView
	}
	return &RenderTarget{
		colorView:   s.color.view,
		depthView:   s.depth.view,
		colorFormat: s.colorFormat,
		depthFormat: s.depth.format,
		clearColor:  s.clearColor,
		clearDepth:  DefaultClearDepth,
	}, nil
}

// CurrentDrawable returns a drawable that counts presented frames.
func (s *OffscreenSurface) CurrentDrawable() (bulb.Drawable, error) {
	if s.color.view == nil {
		return nil, ErrNoView
	}
	return frameDrawable{presented: &s.presented}, nil
}

// Presented returns how many frames were submitted for presentation.
func (s *OffscreenSurface) Presented() uint64 { return s.presented.Load() }

// Destroy releases both attachments.
func (s *OffscreenSurface) Destroy() {
	s.color.release(s.device, s.label+"_color")
	s.depth.release(s.device, s.label+"_depth")
}
