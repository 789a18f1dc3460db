// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// depthKey selects a pipeline variant. HAL pipelines bake the depth test
// in, so every DepthStencilState used with a RenderPipeline gets its own
// variant.
type depthKey struct {
	compare gputypes.CompareFunction
	write   bool
}

// baseDepth is the variant created eagerly by CreateRenderPipeline.
var baseDepth = depthKey{compare: gputypes.CompareFunctionLess, write: true}

// RenderPipeline owns the uniform bind group layout, the pipeline layout
// and one HAL pipeline per depth configuration it has been drawn with.
type RenderPipeline struct {
	device      *Device
	label       string
	colorFormat gputypes.TextureFormat
	depthFormat gputypes.TextureFormat

	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout
	vertex     hal.VertexState
	fragment   hal.FragmentState

	mu       sync.Mutex
	variants map[depthKey]hal.RenderPipeline
}

var _ bulb.RenderPipeline = (*RenderPipeline)(nil)

// CreateRenderPipeline creates the layouts and the base pipeline variant
// (depth compare less, depth write on).
func (d *Device) CreateRenderPipeline(desc *bulb.RenderPipelineDescriptor) (bulb.RenderPipeline, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if err := validatePipelineDescriptor(desc); err != nil {
		return nil, err
	}
	vs, ok := desc.Vertex.(*ShaderFunction)
	if !ok || vs.library.module == nil {
		return nil, fmt.Errorf("vertex function: %w", ErrForeignObject)
	}
	fs, ok := desc.Fragment.(*ShaderFunction)
	if !ok || fs.library.module == nil {
		return nil, fmt.Errorf("fragment function: %w", ErrForeignObject)
	}

	p := &RenderPipeline{
		device:      d,
		label:       desc.Label,
		colorFormat: desc.ColorFormat,
		depthFormat: desc.DepthFormat,
		variants:    make(map[depthKey]hal.RenderPipeline),
	}

	bindLayout, err := d.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: uint64(desc.UniformSize),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	layout, err := d.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.layout = layout

	p.vertex = hal.VertexState{
		Module:     vs.library.module,
		EntryPoint: vs.name,
		Buffers:    []gputypes.VertexBufferLayout{desc.VertexLayout},
	}
	p.fragment = hal.FragmentState{
		Module:     fs.library.module,
		EntryPoint: fs.name,
		Targets: []gputypes.ColorTargetState{
			{
				Format:    desc.ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			},
		},
	}

	if _, err := p.variant(baseDepth); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func validatePipelineDescriptor(desc *bulb.RenderPipelineDescriptor) error {
	switch {
	case desc == nil:
		return fmt.Errorf("nil render pipeline descriptor")
	case desc.Vertex == nil || desc.Fragment == nil:
		return fmt.Errorf("render pipeline %q: vertex and fragment functions are required", desc.Label)
	case desc.ColorFormat == gputypes.TextureFormatUndefined || desc.ColorFormat.IsDepthStencil():
		return fmt.Errorf("render pipeline %q: invalid color format %v", desc.Label, desc.ColorFormat)
	case !desc.DepthFormat.HasDepth():
		return fmt.Errorf("render pipeline %q: invalid depth format %v", desc.Label, desc.DepthFormat)
	case desc.UniformSize <= 0:
		return fmt.Errorf("render pipeline %q: invalid uniform size %d", desc.Label, desc.UniformSize)
	}
	return nil
}

// variant returns the HAL pipeline for key, creating it on first use.
func (p *RenderPipeline) variant(key depthKey) (hal.RenderPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}
	if p.layout == nil {
		return nil, fmt.Errorf("render pipeline %q: destroyed", p.label)
	}

	fragment := p.fragment
	rp, err := p.device.hal.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s_%v", p.label, key.compare),
		Layout: p.layout,
		Vertex: p.vertex,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: key.write,
			DepthCompare:      key.compare,
			StencilFront:      keepStencil,
			StencilBack:       keepStencil,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment:    &fragment,
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", p.label, err)
	}
	p.variants[key] = rp
	return rp, nil
}

var keepStencil = hal.StencilFaceState{
	Compare:     gputypes.CompareFunctionAlways,
	FailOp:      hal.StencilOperationKeep,
	DepthFailOp: hal.StencilOperationKeep,
	PassOp:      hal.StencilOperationKeep,
}

// ColorFormat returns the color target format.
func (p *RenderPipeline) ColorFormat() gputypes.TextureFormat { return p.colorFormat }

// DepthFormat returns the depth attachment format.
func (p *RenderPipeline) DepthFormat() gputypes.TextureFormat { return p.depthFormat }

// Variants returns the number of HAL pipelines created so far.
func (p *RenderPipeline) Variants() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.variants)
}

// Destroy releases every variant, then the layouts. Safe to call multiple
// times.
func (p *RenderPipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	dev := p.device.hal
	for key, rp := range p.variants {
		dev.DestroyRenderPipeline(rp)
		delete(p.variants, key)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
}

// DepthStencilState is a depth test configuration. It selects the pipeline
// variant used at draw time and owns no HAL object.
type DepthStencilState struct {
	key depthKey
}

var _ bulb.DepthStencilState = (*DepthStencilState)(nil)

// CreateDepthStencilState validates desc and returns the configuration.
func (d *Device) CreateDepthStencilState(desc *bulb.DepthStencilDescriptor) (bulb.DepthStencilState, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if desc.DepthCompare == gputypes.CompareFunctionUndefined {
		return nil, fmt.Errorf("depth-stencil state %q: undefined compare function", desc.Label)
	}
	return &DepthStencilState{key: depthKey{compare: desc.DepthCompare, write: desc.DepthWriteEnabled}}, nil
}

// Destroy is a no-op.
func (s *DepthStencilState) Destroy() {}
