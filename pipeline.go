// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Default attachment formats.
const (
	DefaultColorFormat = gputypes.TextureFormatBGRA8UnormSrgb
	DefaultDepthFormat = gputypes.TextureFormatDepth32Float
)

// PipelineState is the product of [PipelineBuilder.Build]: the render
// pipeline, its depth test configuration and the shader library they were
// built from. It is immutable and shared read-only by every draw.
type PipelineState struct {
	Pipeline     RenderPipeline
	DepthStencil DepthStencilState
	Library      ShaderLibrary

	colorFormat gputypes.TextureFormat
	depthFormat gputypes.TextureFormat
}

// ColorFormat returns the color attachment format the pipeline renders to.
func (p *PipelineState) ColorFormat() gputypes.TextureFormat { return p.colorFormat }

// DepthFormat returns the depth attachment format the pipeline tests against.
func (p *PipelineState) DepthFormat() gputypes.TextureFormat { return p.depthFormat }

// Destroy releases the depth state, the pipeline and the library, in that
// order. Safe to call multiple times.
func (p *PipelineState) Destroy() {
	if p.DepthStencil != nil {
		p.DepthStencil.Destroy()
		p.DepthStencil = nil
	}
	if p.Pipeline != nil {
		p.Pipeline.Destroy()
		p.Pipeline = nil
	}
	if p.Library != nil {
		p.Library.Destroy()
		p.Library = nil
	}
}

// PipelineBuilder compiles a shader asset into a [PipelineState] with a
// fixed vertex + fragment stage, one color and one depth output.
type PipelineBuilder struct {
	Label              string
	VertexEntryPoint   string
	FragmentEntryPoint string
	ColorFormat        gputypes.TextureFormat
	DepthFormat        gputypes.TextureFormat
}

// NewPipelineBuilder returns a builder with the default entry points and
// formats.
func NewPipelineBuilder(label string) *PipelineBuilder {
	return &PipelineBuilder{
		Label:              label,
		VertexEntryPoint:   DefaultVertexEntryPoint,
		FragmentEntryPoint: DefaultFragmentEntryPoint,
		ColorFormat:        DefaultColorFormat,
		DepthFormat:        DefaultDepthFormat,
	}
}

// Build compiles source and creates the pipeline and depth-stencil state.
//
// Failures map to [RendererError] kinds:
//   - the compiler rejects source: ShaderCompilationFailed, with the
//     compiler diagnostic as details;
//   - an entry point is missing: EntrypointNotFound;
//   - the pipeline descriptor is rejected: PipelineCreationFailed;
//   - the depth-stencil state cannot be created: DeviceError.
//
// On failure every object created so far is destroyed.
func (b *PipelineBuilder) Build(ctx *GraphicsContext, source string) (*PipelineState, error) {
	device := ctx.Device()

	library, err := device.CreateShaderLibrary(b.Label+"_shader", source)
	if err != nil {
		return nil, newRendererError(ShaderCompilationFailed, err)
	}

	vertexFn, fragmentFn, err := b.resolveEntryPoints(library)
	if err != nil {
		library.Destroy()
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&RenderPipelineDescriptor{
		Label:        b.Label + "_pipeline",
		Vertex:       vertexFn,
		Fragment:     fragmentFn,
		VertexLayout: quadVertexLayout(),
		ColorFormat:  b.ColorFormat,
		DepthFormat:  b.DepthFormat,
		UniformSize:  UniformsSize,
	})
	if err != nil {
		library.Destroy()
		return nil, newRendererError(PipelineCreationFailed, err)
	}

	depthStencil, err := device.CreateDepthStencilState(&DepthStencilDescriptor{
		Label:             b.Label + "_depth",
		DepthCompare:      gputypes.CompareFunctionLess,
		DepthWriteEnabled: true,
	})
	if err != nil {
		pipeline.Destroy()
		library.Destroy()
		return nil, newRendererError(DeviceError, fmt.Errorf("create depth-stencil state: %w", err))
	}

	Logger().Debug("bulb: pipeline built",
		"vertex", b.VertexEntryPoint,
		"fragment", b.FragmentEntryPoint,
		"color", b.ColorFormat,
		"depth", b.DepthFormat)

	return &PipelineState{
		Pipeline:     pipeline,
		DepthStencil: depthStencil,
		Library:      library,
		colorFormat:  b.ColorFormat,
		depthFormat:  b.DepthFormat,
	}, nil
}

// resolveEntryPoints looks up both entry points and checks their stages.
func (b *PipelineBuilder) resolveEntryPoints(library ShaderLibrary) (ShaderFunction, ShaderFunction, error) {
	var missing []string

	vertexFn, ok := library.Function(b.VertexEntryPoint)
	if !ok || vertexFn.Stage()&gputypes.ShaderStageVertex == 0 {
		missing = append(missing, fmt.Sprintf("vertex %q", b.VertexEntryPoint))
	}
	fragmentFn, ok := library.Function(b.FragmentEntryPoint)
	if !ok || fragmentFn.Stage()&gputypes.ShaderStageFragment == 0 {
		missing = append(missing, fmt.Sprintf("fragment %q", b.FragmentEntryPoint))
	}

	if len(missing) > 0 {
		return nil, nil, &RendererError{
			Kind:    EntrypointNotFound,
			Details: strings.Join(missing, ", "),
		}
	}
	return vertexFn, fragmentFn, nil
}
