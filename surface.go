// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import "github.com/gogpu/gputypes"

// Surface is the display surface the host hands to [Renderer.DrawFrame]
// on every refresh.
//
// The renderer never creates or owns a surface. It queries the current
// drawable size, the render target for this frame and the drawable to
// present. Either acquisition may fail, in which case the frame is skipped.
type Surface interface {
	// DrawableSize returns the current drawable size in pixels.
	DrawableSize() (width, height int)

	// CurrentRenderTarget returns the color and depth attachments for the
	// frame being drawn.
	CurrentRenderTarget() (RenderTarget, error)

	// CurrentDrawable returns the presentable drawable for this frame.
	CurrentDrawable() (Drawable, error)
}

// RenderTarget is one frame's color and depth attachments. The concrete
// type belongs to the device backend; the renderer only checks formats.
type RenderTarget interface {
	ColorFormat() gputypes.TextureFormat
	DepthFormat() gputypes.TextureFormat
}

// Drawable is a presentable image.
type Drawable interface {
	// Present hands the drawable back to the display. Called by the device
	// backend once the command buffer that rendered it has been submitted.
	Present()
}
