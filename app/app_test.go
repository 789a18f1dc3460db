// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package app

import (
	"errors"
	"testing"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/backend/wgpu"
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func openNoop(t *testing.T) *wgpu.Device {
	t.Helper()
	d, err := wgpu.Open(wgpu.Config{Backends: []gputypes.Backend{gputypes.BackendEmpty}})
	require.NoError(t, err)
	t.Cleanup(d.Release)
	return d
}

type fakeWindow struct {
	title  string
	closed bool
}

func (w *fakeWindow) Title() string { return w.title }
func (w *fakeWindow) Close() error  { w.closed = true; return nil }

// fakeApp records the hooks a delegate calls.
type fakeApp struct {
	device    bulb.Device
	deviceErr error
	openErr   error

	calls   []string
	policy  ActivationPolicy
	config  WindowConfig
	handler FrameHandler
}

func (a *fakeApp) SetActivationPolicy(p ActivationPolicy) {
	a.calls = append(a.calls, "policy")
	a.policy = p
}

func (a *fakeApp) Device() (bulb.Device, error) {
	a.calls = append(a.calls, "device")
	return a.device, a.deviceErr
}

func (a *fakeApp) OpenWindow(cfg WindowConfig, h FrameHandler) (Window, error) {
	a.calls = append(a.calls, "open")
	if a.openErr != nil {
		return nil, a.openErr
	}
	a.config = cfg
	a.handler = h
	return &fakeWindow{title: cfg.Title}, nil
}

func (a *fakeApp) Activate() { a.calls = append(a.calls, "activate") }

func TestLaunch(t *testing.T) {
	d := openNoop(t)
	a := &fakeApp{device: d, policy: ActivationPolicyProhibited}
	del := &RendererDelegate{Options: []bulb.Option{bulb.WithShaderSource(testShader)}}

	require.NoError(t, Launch(a, del))
	assert.Equal(t, []string{"policy", "device", "open", "activate"}, a.calls)
	assert.Equal(t, ActivationPolicyRegular, a.policy)
	assert.Equal(t, DefaultWindowConfig(), a.config)
	assert.True(t, a.config.Style.Has(WindowStyleTitled|WindowStyleClosable))
	assert.False(t, a.config.Style.Has(WindowStyleResizable))
	require.NotNil(t, del.Renderer())
	assert.Equal(t, "Mandelbulb", del.MainWindow().Title())
	assert.IsType(t, &RendererView{}, a.handler)
	assert.Equal(t, 2, d.Refs())
	assert.True(t, del.ShouldTerminateAfterLastWindowClosed())

	assert.ErrorIs(t, del.DidFinishLaunching(a), ErrAlreadyLaunched)

	require.NoError(t, Terminate(del))
	assert.Nil(t, del.Renderer())
	assert.Equal(t, 1, d.Refs())
	require.NoError(t, Terminate(del))
}

func TestLaunchCustomWindow(t *testing.T) {
	d := openNoop(t)
	a := &fakeApp{device: d}
	cfg := WindowConfig{Title: "bulb", Width: 320, Height: 240, Style: WindowStyleResizable}
	del := &RendererDelegate{Options: []bulb.Option{bulb.WithShaderSource(testShader)}, Window: cfg}

	require.NoError(t, Launch(a, del))
	assert.Equal(t, cfg, a.config)
	require.NoError(t, del.WillTerminate())
}

func TestLaunchRendererFailureOpensNoWindow(t *testing.T) {
	d := openNoop(t)
	a := &fakeApp{device: d}
	del := &RendererDelegate{Options: []bulb.Option{bulb.WithShaderSource("@vertex fn vs_main( {")}}

	err := Launch(a, del)
	require.Error(t, err)
	assert.ErrorIs(t, err, bulb.ErrShaderCompilationFailed)
	var rerr *bulb.RendererError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message(), "Shader compilation failed")

	assert.Equal(t, []string{"policy", "device"}, a.calls)
	assert.Nil(t, del.Renderer())
	assert.Equal(t, 1, d.Refs())
}

func TestLaunchWindowFailureClosesRenderer(t *testing.T) {
	d := openNoop(t)
	a := &fakeApp{device: d, openErr: errors.New("no display")}
	del := &RendererDelegate{Options: []bulb.Option{bulb.WithShaderSource(testShader)}}

	err := Launch(a, del)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
	assert.NotContains(t, a.calls, "activate")
	assert.Nil(t, del.Renderer())
	assert.Equal(t, 1, d.Refs())
}

func TestLaunchDeviceFailure(t *testing.T) {
	a := &fakeApp{deviceErr: ErrNoDevice}
	del := &RendererDelegate{}

	err := Launch(a, del)
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Equal(t, []string{"policy", "device"}, a.calls)
}

func TestWindowConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultWindowConfig().Validate())
	assert.ErrorIs(t, WindowConfig{Width: 0, Height: 10}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, WindowConfig{Width: 10, Height: -1}.Validate(), ErrInvalidWindow)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "regular", ActivationPolicyRegular.String())
	assert.Equal(t, "accessory", ActivationPolicyAccessory.String())
	assert.Equal(t, "prohibited", ActivationPolicyProhibited.String())
	assert.Equal(t, "ActivationPolicy(9)", ActivationPolicy(9).String())

	assert.Equal(t, "titled|closable", DefaultWindowConfig().Style.String())
	assert.Equal(t, "borderless", WindowStyle(0).String())
}

func TestFrameHandlerFunc(t *testing.T) {
	var got bulb.Surface
	h := FrameHandlerFunc(func(s bulb.Surface) { got = s })

	a := NewHeadless(openNoop(t))
	_, err := a.OpenWindow(WindowConfig{Width: 8, Height: 8}, h)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.RunFrames(1)
	require.NoError(t, err)
	assert.Same(t, a.Surface(), got)
}
