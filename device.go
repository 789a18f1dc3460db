// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import "github.com/gogpu/gputypes"

// Device is the logical GPU handle supplied by the host.
//
// Device is reference counted: the host creates it with one reference,
// [NewGraphicsContext] takes another with Retain and gives it back with
// Release at teardown. The device is destroyed when the last reference is
// released.
//
// This is the narrow surface the engine needs from a GPU API. backend/wgpu
// implements it on gogpu/wgpu/hal; tests use an in-memory fake.
type Device interface {
	// Retain adds a reference to the device.
	Retain()

	// Release drops a reference. The device is destroyed when the count
	// reaches zero.
	Release()

	// CreateCommandQueue creates the queue used for all submissions.
	CreateCommandQueue(label string) (CommandQueue, error)

	// CreateShaderLibrary compiles shader source text. The returned error
	// message is the compiler diagnostic.
	CreateShaderLibrary(label, source string) (ShaderLibrary, error)

	// CreateRenderPipeline builds an immutable render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateDepthStencilState builds an immutable depth test configuration.
	CreateDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error)

	// CreateBuffer allocates a CPU-writable, GPU-readable buffer.
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
}

// ShaderLibrary is a compiled shader module.
type ShaderLibrary interface {
	// Function looks up an entry point by name.
	Function(name string) (ShaderFunction, bool)

	// Destroy releases the library.
	Destroy()
}

// ShaderFunction is one entry point of a ShaderLibrary.
type ShaderFunction interface {
	Name() string
	Stage() gputypes.ShaderStage
}

// RenderPipeline is an immutable compiled draw program.
type RenderPipeline interface {
	Destroy()
}

// DepthStencilState is an immutable depth test configuration.
type DepthStencilState interface {
	Destroy()
}

// Buffer is GPU memory with a CPU-side view.
//
// The underlying memory is not guaranteed to be coherent: after writing
// into Contents the caller must Flush the modified range before the GPU
// reads it.
type Buffer interface {
	// Len returns the buffer size in bytes.
	Len() int

	// Contents returns the CPU-writable view of the buffer.
	Contents() []byte

	// Flush makes the byte range [offset, offset+size) visible to the GPU.
	Flush(offset, size int) error

	// Destroy releases the buffer.
	Destroy()
}

// CommandQueue submits command buffers to the GPU in order.
type CommandQueue interface {
	// CommandBuffer creates a new, empty command buffer.
	CommandBuffer() (CommandBuffer, error)

	// Destroy releases the queue.
	Destroy()
}

// CommandBuffer is a batch of GPU work submitted atomically.
type CommandBuffer interface {
	// AddCompletedHandler registers fn to run once the GPU has finished
	// executing the buffer. Handlers run on a goroutine other than the one
	// that called Commit.
	AddCompletedHandler(fn func())

	// BeginRenderPass starts encoding a render pass against target.
	BeginRenderPass(target RenderTarget) (RenderPassEncoder, error)

	// Present schedules drawable for presentation after the buffer executes.
	Present(drawable Drawable)

	// Commit submits the buffer and returns immediately. When Commit returns
	// an error nothing was submitted and completion handlers will not run.
	Commit() error

	// Discard abandons the buffer without submitting it. Completion handlers
	// are not run.
	Discard()
}

// RenderPassEncoder records draw commands for one render pass.
type RenderPassEncoder interface {
	SetPipeline(pipeline RenderPipeline)
	SetDepthStencilState(state DepthStencilState)

	// SetVertexBuffer binds a vertex buffer to the given slot.
	SetVertexBuffer(slot int, buf Buffer, offset int)

	// SetUniformBuffer binds buf as the uniform block visible to both the
	// vertex and the fragment stage.
	SetUniformBuffer(buf Buffer, offset int)

	// Draw issues a non-indexed draw.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)

	// End finishes the pass. An error means the recorded commands are
	// unusable and the command buffer must be discarded.
	End() error
}

// RenderPipelineDescriptor describes a render pipeline.
type RenderPipelineDescriptor struct {
	Label string

	Vertex   ShaderFunction
	Fragment ShaderFunction

	// VertexLayout describes the single vertex buffer at slot 0.
	VertexLayout gputypes.VertexBufferLayout

	// ColorFormat is the format of the single color attachment.
	ColorFormat gputypes.TextureFormat

	// DepthFormat is the format of the depth attachment.
	DepthFormat gputypes.TextureFormat

	// UniformSize is the size of the uniform block bound for the vertex and
	// fragment stages.
	UniformSize int
}

// DepthStencilDescriptor describes a depth test configuration.
type DepthStencilDescriptor struct {
	Label             string
	DepthCompare      gputypes.CompareFunction
	DepthWriteEnabled bool
}

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  int
	Usage gputypes.BufferUsage
}
