// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"
)

// testShader declares the two entry points the renderer expects and reads
// the uniform block from the fragment stage.
const testShader = `
struct Uniforms {
    time: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.uv, u.time, 1.0);
}
`

// createNoopDevice opens the noop HAL adapter and returns its raw handles.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// newNoopDevice wraps a noop device. The test owns the returned reference.
func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	return New(&countingDevice{Device: device}, queue)
}

// newGatedDevice wraps a noop device whose queue reports completion only
// when the test says so.
func newGatedDevice(t *testing.T) (*Device, *gatedQueue) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	gate := &gatedQueue{Queue: queue}
	return New(&countingDevice{Device: device}, gate), gate
}

// countingDevice counts command encoder and texture creations. When
// failTexture is non-zero the texture creation with that number fails.
type countingDevice struct {
	hal.Device
	encoders    atomic.Int32
	textures    atomic.Int32
	failTexture atomic.Int32
}

var errTextureLimit = errors.New("texture limit reached")

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if n := d.textures.Add(1); n == d.failTexture.Load() {
		return nil, errTextureLimit
	}
	return d.Device.CreateTexture(desc)
}

// failTextureAfter makes the n-th texture created from now on fail.
func failTextureAfter(d *Device, n int32) {
	c := d.hal.(*countingDevice)
	c.failTexture.Store(c.textures.Load() + n)
}

func (d *countingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	d.encoders.Add(1)
	return d.Device.CreateCommandEncoder(desc)
}

func encodersCreated(d *Device) int {
	return int(d.hal.(*countingDevice).encoders.Load())
}

// gatedQueue holds back completion until complete is called.
type gatedQueue struct {
	hal.Queue

	mu        sync.Mutex
	completed uint64
}

func (g *gatedQueue) PollCompleted() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed
}

func (g *gatedQueue) complete(index uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = index
}

// commandQueue creates a queue and destroys it at cleanup.
func commandQueue(t *testing.T, d *Device) *Queue {
	t.Helper()
	q, err := d.CreateCommandQueue("test")
	require.NoError(t, err)
	t.Cleanup(q.Destroy)
	return q.(*Queue)
}
