// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the bulb device interfaces on top of the
// gogpu/wgpu hardware abstraction layer.
//
// This backend uses the Pure Go WebGPU implementation, which supports
// Vulkan, Metal, DX12 and GLES depending on the platform. Backends are
// registered by importing them for side effects, for example
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
// # Architecture Overview
//
//	bulb.Renderer -> Device -> hal.Device / hal.Queue
//
// Key components:
//
//   - Device: reference-counted wrapper around a HAL device and queue,
//     opened with [Open] or adopted from a host with [FromProvider]
//   - ShaderLibrary: WGSL compiled with naga, entry points read from the IR
//   - RenderPipeline: one HAL pipeline per depth configuration
//   - Buffer: CPU shadow copy flushed with Queue.WriteBuffer
//   - Queue: pooled command encoders and a completion worker that runs
//     completion handlers when the HAL reports the submission done
//   - ViewSurface / OffscreenSurface: render targets with a managed depth
//     buffer
//
// # Resource Lifetime
//
// Objects that frames in flight may still reference (resized depth
// buffers, destroyed buffers and their bind groups) are retired: they are
// destroyed only after every submission made before the retirement has
// completed.
//
// # Example
//
//	dev, err := wgpu.Open(wgpu.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Release()
//
//	surface, err := wgpu.NewOffscreenSurface(dev, 900, 1024, bulb.DefaultColorFormat)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer surface.Destroy()
//
//	r, err := bulb.New(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for range 60 {
//	    if err := r.DrawFrame(surface); err != nil {
//	        log.Print(err)
//	    }
//	}
package wgpu
