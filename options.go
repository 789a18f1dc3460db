// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"time"

	"github.com/gogpu/gputypes"
)

// DefaultFramesInFlight is the number of frame slots (triple buffering).
const DefaultFramesInFlight = 3

// DefaultTimeStep is the fixed clock increment per drawn frame.
const DefaultTimeStep float32 = 0.016

// DefaultDrainTimeout bounds how long Close waits for in-flight frames.
const DefaultDrainTimeout = 5 * time.Second

// angleStep is added to the rotation accumulator after every submission.
const angleStep float32 = 0.01

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := bulb.New(device,
//	    bulb.WithShaderSource(mySource),
//	    bulb.WithEntryPoints("vert", "frag"),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	label          string
	shaderSource   string
	vertexEntry    string
	fragmentEntry  string
	colorFormat    gputypes.TextureFormat
	depthFormat    gputypes.TextureFormat
	framesInFlight int
	timeStep       float32
	camera         Camera
	drainTimeout   time.Duration
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		label:          "bulb",
		shaderSource:   DefaultShaderSource,
		vertexEntry:    DefaultVertexEntryPoint,
		fragmentEntry:  DefaultFragmentEntryPoint,
		colorFormat:    DefaultColorFormat,
		depthFormat:    DefaultDepthFormat,
		framesInFlight: DefaultFramesInFlight,
		timeStep:       DefaultTimeStep,
		camera:         DefaultCamera(),
		drainTimeout:   DefaultDrainTimeout,
	}
}

// WithLabel sets the debug label prefix for GPU objects.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithShaderSource replaces the embedded Mandelbulb shader. The source
// must define the vertex and fragment entry points (see WithEntryPoints).
func WithShaderSource(source string) Option {
	return func(o *options) {
		o.shaderSource = source
	}
}

// WithEntryPoints sets the vertex and fragment entry point names.
// Empty names keep the defaults.
func WithEntryPoints(vertex, fragment string) Option {
	return func(o *options) {
		if vertex != "" {
			o.vertexEntry = vertex
		}
		if fragment != "" {
			o.fragmentEntry = fragment
		}
	}
}

// WithPixelFormats sets the color and depth attachment formats. They must
// match the formats of the surface's render targets.
func WithPixelFormats(color, depth gputypes.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = color
		o.depthFormat = depth
	}
}

// WithFramesInFlight sets the number of frame slots. Values below 1 keep
// the default.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.framesInFlight = n
		}
	}
}

// WithTimeStep sets the fixed clock increment per frame.
func WithTimeStep(step float32) Option {
	return func(o *options) {
		o.timeStep = step
	}
}

// WithCamera replaces the fixed camera written into every frame.
func WithCamera(c Camera) Option {
	return func(o *options) {
		o.camera = c
	}
}

// WithDrainTimeout bounds how long Close waits for in-flight frames.
// Zero or negative waits forever.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		o.drainTimeout = d
	}
}
