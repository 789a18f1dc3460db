// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"testing"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileWGSLEntryPoints(t *testing.T) {
	entries, err := CompileWGSL(testShader)
	require.NoError(t, err)
	assert.ElementsMatch(t, []EntryPoint{
		{Name: "vs_main", Stage: gputypes.ShaderStageVertex},
		{Name: "fs_main", Stage: gputypes.ShaderStageFragment},
	}, entries)
}

func TestCompileWGSLSyntaxError(t *testing.T) {
	_, err := CompileWGSL("@vertex fn vs_main( {")
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestCreateShaderLibrary(t *testing.T) {
	d := newNoopDevice(t)

	lib, err := d.CreateShaderLibrary("test", testShader)
	require.NoError(t, err)
	defer lib.Destroy()

	vs, ok := lib.Function("vs_main")
	require.True(t, ok)
	assert.Equal(t, "vs_main", vs.Name())
	assert.Equal(t, gputypes.ShaderStageVertex, vs.Stage())

	fs, ok := lib.Function("fs_main")
	require.True(t, ok)
	assert.Equal(t, gputypes.ShaderStageFragment, fs.Stage())

	_, ok = lib.Function("main")
	assert.False(t, ok)

	lib.Destroy()
	lib.Destroy()
}

func testVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: bulb.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		},
	}
}

// buildPipeline compiles testShader into a pipeline rendering to color.
func buildPipeline(t *testing.T, d *Device, color gputypes.TextureFormat) *RenderPipeline {
	t.Helper()
	lib, err := d.CreateShaderLibrary("test", testShader)
	require.NoError(t, err)
	t.Cleanup(lib.Destroy)

	vs, _ := lib.Function("vs_main")
	fs, _ := lib.Function("fs_main")
	p, err := d.CreateRenderPipeline(&bulb.RenderPipelineDescriptor{
		Label:        "test",
		Vertex:       vs,
		Fragment:     fs,
		VertexLayout: testVertexLayout(),
		ColorFormat:  color,
		DepthFormat:  bulb.DefaultDepthFormat,
		UniformSize:  bulb.UniformsSize,
	})
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p.(*RenderPipeline)
}

func TestCreateRenderPipeline(t *testing.T) {
	d := newNoopDevice(t)
	p := buildPipeline(t, d, bulb.DefaultColorFormat)

	assert.Equal(t, 1, p.Variants())
	assert.Equal(t, bulb.DefaultColorFormat, p.ColorFormat())
	assert.Equal(t, bulb.DefaultDepthFormat, p.DepthFormat())

	p.Destroy()
	assert.Equal(t, 0, p.Variants())
	_, err := p.variant(baseDepth)
	assert.Error(t, err)
	p.Destroy()
}

type foreignFunction struct{}

func (foreignFunction) Name() string                { return "vs_main" }
func (foreignFunction) Stage() gputypes.ShaderStage { return gputypes.ShaderStageVertex }

func TestCreateRenderPipelineRejectsDescriptors(t *testing.T) {
	d := newNoopDevice(t)
	lib, err := d.CreateShaderLibrary("test", testShader)
	require.NoError(t, err)
	defer lib.Destroy()
	vs, _ := lib.Function("vs_main")
	fs, _ := lib.Function("fs_main")

	valid := func() *bulb.RenderPipelineDescriptor {
		return &bulb.RenderPipelineDescriptor{
			Label:        "test",
			Vertex:       vs,
			Fragment:     fs,
			VertexLayout: testVertexLayout(),
			ColorFormat:  bulb.DefaultColorFormat,
			DepthFormat:  bulb.DefaultDepthFormat,
			UniformSize:  bulb.UniformsSize,
		}
	}

	tests := []struct {
		name   string
		mutate func(*bulb.RenderPipelineDescriptor)
		is     error
	}{
		{"missing fragment", func(d *bulb.RenderPipelineDescriptor) { d.Fragment = nil }, nil},
		{"undefined color", func(d *bulb.RenderPipelineDescriptor) { d.ColorFormat = gputypes.TextureFormatUndefined }, nil},
		{"depth as color", func(d *bulb.RenderPipelineDescriptor) { d.ColorFormat = gputypes.TextureFormatDepth32Float }, nil},
		{"color as depth", func(d *bulb.RenderPipelineDescriptor) { d.DepthFormat = gputypes.TextureFormatRGBA8Unorm }, nil},
		{"no uniforms", func(d *bulb.RenderPipelineDescriptor) { d.UniformSize = 0 }, nil},
		{"foreign function", func(d *bulb.RenderPipelineDescriptor) { d.Vertex = foreignFunction{} }, ErrForeignObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := valid()
			tt.mutate(desc)
			_, err := d.CreateRenderPipeline(desc)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestCreateDepthStencilState(t *testing.T) {
	d := newNoopDevice(t)

	s, err := d.CreateDepthStencilState(&bulb.DepthStencilDescriptor{
		Label:             "depth",
		DepthCompare:      gputypes.CompareFunctionLess,
		DepthWriteEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, baseDepth, s.(*DepthStencilState).key)
	s.Destroy()

	_, err = d.CreateDepthStencilState(&bulb.DepthStencilDescriptor{Label: "bad"})
	assert.Error(t, err)
}

func TestBufferFlush(t *testing.T) {
	d := newNoopDevice(t)

	buf, err := d.CreateBuffer(&bulb.BufferDescriptor{
		Label: "uniforms",
		Size:  bulb.UniformsSize,
		Usage: gputypes.BufferUsageUniform,
	})
	require.NoError(t, err)
	assert.Equal(t, bulb.UniformsSize, buf.Len())
	assert.Len(t, buf.Contents(), bulb.UniformsSize)

	copy(buf.Contents(), []byte{1, 2, 3, 4})
	assert.NoError(t, buf.Flush(0, 4))
	assert.NoError(t, buf.Flush(0, bulb.UniformsSize))
	assert.NoError(t, buf.Flush(bulb.UniformsSize, 0))

	assert.ErrorIs(t, buf.Flush(-1, 4), ErrFlushRange)
	assert.ErrorIs(t, buf.Flush(60, 8), ErrFlushRange)
	assert.ErrorIs(t, buf.Flush(0, -1), ErrFlushRange)

	buf.Destroy()
	buf.Destroy()
	assert.Error(t, buf.Flush(0, 4))
}

func TestCreateBufferInvalidSize(t *testing.T) {
	d := newNoopDevice(t)
	_, err := d.CreateBuffer(&bulb.BufferDescriptor{Label: "empty"})
	assert.Error(t, err)
}
