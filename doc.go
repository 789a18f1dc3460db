// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bulb is a minimal GPU rendering engine that draws a full-screen
// shaded quad once per display refresh.
//
// # Overview
//
// The engine owns three things: the GPU pipeline built from a WGSL shader
// asset, a ring of per-frame uniform buffers, and the CPU/GPU
// synchronization that bounds how many frames may be in flight at once.
// Everything else is supplied by the host:
//   - the GPU [Device] (see backend/wgpu for the wgpu/hal implementation),
//   - the display [Surface] that hands out render targets and drawables,
//   - the refresh-driven callback that calls [Renderer.DrawFrame].
//
// # Quick Start
//
//	device, err := wgpu.Open(wgpu.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Release()
//
//	r, err := bulb.New(device)
//	if err != nil {
//	    log.Fatal(err) // *bulb.RendererError, see Message()
//	}
//	defer r.Close()
//
//	// Once per refresh, on the render goroutine:
//	_ = r.DrawFrame(surface)
//
// # Frames In Flight
//
// The renderer keeps [DefaultFramesInFlight] uniform buffers. Each draw
// advances to the next slot and blocks until the GPU has finished the frame
// that last used it. The completion notification arrives on a different
// goroutine and only touches the [FrameScheduler] counter.
//
// # Initialization
//
// [New] builds the [GraphicsContext], the [PipelineState] and the
// [FrameBufferPool] in that order. Any failure releases what was already
// acquired and returns a [*RendererError]; a partially built renderer is
// never returned.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to route diagnostics
// to a [log/slog] logger.
package bulb

// Version is the current version of the engine.
const Version = "0.1.0"
